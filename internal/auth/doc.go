// Package auth manages the OAuth2 credentials the server uses to talk to its
// task host.
//
// Two providers are supported: Dida365 (TickTick's Chinese edition) and
// Google Tasks. The authorization-code flow is run once from the command line
// with "didagoals auth <provider>"; the resulting token is cached as JSON in
// the user's cache directory and refreshed transparently afterwards.
//
// A pre-issued Dida365 access token can be configured instead, in which case
// no refresh is attempted.
package auth
