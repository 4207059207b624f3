// Package server holds the HTTP server configuration.
//
// The start command builds the Fiber application itself; this package only
// defines the listen port, the API key and the directory job definitions are
// read from, and validates them before the server starts.
package server
