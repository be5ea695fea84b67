// Package http implements the HTTP handlers of the keygate service. Handlers
// stay thin: they decode and validate requests, call a service, and map the
// result onto the response bodies clients already depend on.
//
// # Endpoints
//
//	GET    /              liveness banner
//	GET    /verify        verify a key, binding it to a hardware id on first use
//	POST   /keys          issue a key
//	GET    /keys          list every key
//	PATCH  /keys/{id}     set or clear the hardware id of a key
//	DELETE /keys/{id}     delete a key
//	GET    /health        overall health, including the store
//	GET    /health/live   process liveness
//	GET    /health/ready  store reachability, 503 when it fails
//	GET    /version       build information
//
// # Errors
//
// Domain outcomes keep their historical JSON bodies, for example
// {"error":"key required"} or {"message":"key expired","status":"expired"}.
// Malformed bodies, unknown routes and store failures are reported as
// RFC 7807 problem details through errors.ErrorHandler.
package http
