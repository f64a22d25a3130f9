// Package common holds the helpers shared by the goal and analytics tool
// packages: argument parsing, result encoding and the instrumented handler
// wrapper.
package common
