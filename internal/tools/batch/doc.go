// Package batch runs a tool operation over several goal IDs and reports a
// per-ID outcome, so one failing goal does not abort the rest.
package batch
