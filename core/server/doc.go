// Package server holds the HTTP server configuration.
//
// The start command builds the fiber app from this configuration; the API key
// protects every feature route and the principal header names the remote
// account a request syncs for.
package server
