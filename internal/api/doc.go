// Package api exposes the course, lesson, enrollment and generation
// services over HTTP. Handlers parse and validate requests, take the caller
// identity from the context set by middleware.AuthMiddleware, call one
// service operation and map its error to a status code with
// MapErrorToStatusCode.
package api
