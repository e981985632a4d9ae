// Package httpserver hosts the account registry over HTTP.
//
// Each account request is authenticated by an interfaces.CallerResolver
// (normally identity.Verifier) and handed to the registry together with the
// resolved caller. Only the registry decides whether the caller may proceed.
//
// Status codes:
//
//	200  success
//	400  malformed body, body over api.MaxBodySize, bad id escaping
//	401  caller could not be verified or is not the operator
//	404  GET of an identifier with no binding
//	503  every storage backend is unavailable
//	500  anything else
//
// The server also exposes /livez, /readyz, /drain and /undrain for load
// balancer integration, pprof under /debug when enabled, and Prometheus
// metrics on a separate listener.
package httpserver
