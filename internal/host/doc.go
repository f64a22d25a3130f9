// Package host defines the contract between didagoals and the hosted task
// service it runs on top of.
//
// A Source exposes the host's native containers (Dida365 projects, Google
// task lists) and items (tasks). Everything above this package, from the goal
// repository to analytics, is written against Source so that backends can be
// swapped without touching domain code.
package host
