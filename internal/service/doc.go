// Package service contains the course and lesson use cases. Services
// coordinate the stores in internal/store, the read-through cache and its
// invalidator, the rate limiter and the content generator. Reads go through
// the cache; every successful write invalidates the affected key families
// before it returns.
//
// Services never see HTTP. Callers pass the authenticated domain.Identity
// explicitly, and failures are reported as sentinel errors that the API
// layer maps to status codes.
package service
