// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation protecting every job endpoint.
//   - rayid: tags every request with a RayID, kept in the context locals and
//     echoed in the X-Ray-ID response header for tracing.
package middleware
