// Package restapi implements the domain API interfaces over the REST
// client. Each type maps one resource family onto its endpoints.
package restapi
