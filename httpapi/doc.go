// Package httpapi is the REST surface of tubeAuth: the /api/v1/users routes,
// the health check and the metrics endpoint.
//
// Tokens travel in HttpOnly, Secure cookies and are echoed in the JSON body.
// Every response uses the {statusCode, data, message, success} envelope.
// Authentication failures of any kind are reported as 401 with one fixed
// message; the specific cause is logged, never returned.
package httpapi
