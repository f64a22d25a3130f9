// Package dida is a client for the Dida365 (TickTick) OpenAPI.
//
// The client implements host.Source: projects are containers and tasks are
// items. All timestamps on the wire use the "2006-01-02T15:04:05.000-0700"
// layout. A task is completed when its status is 2.
//
// Authentication is left to the *http.Client passed to NewClient, normally
// one built by auth.HTTPClient. When the API answers 401 the client
// invalidates the token through the optional Invalidator and retries the
// request once.
package dida
