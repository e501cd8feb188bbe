// Package metrics holds the Prometheus collectors for the service and
// exposes them over HTTP.
package metrics
