/*
Package api holds the wire types shared by the registry HTTP server and its
clients, and the server configuration.

Endpoints:

	GET /api/accounts/{id}   -> 200 AccountResponse | 404 ErrorResponse
	PUT /api/accounts/{id}   <- SetAccountRequest
	                         -> 200 AccountResponse

Every account request must be signed by the caller (see package identity).
Requests from anyone other than the configured operator get 401 with
{"error":"unauthorized"}, whether or not the entry exists.

The clients subpackage implements AccountProvider over HTTP.
*/
package api
