// Package middleware groups the fiber middleware of the server.
//
//   - auth: API key validation for every feature route.
//   - rayid: a unique request id in the context and the response headers.
//
// RayID must be registered first so that every log line carries the id.
package middleware
