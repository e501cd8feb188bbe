// Package generation defines the boundary between the application and the
// external language model used to draft lesson content and course
// presentations. Generation is expensive, so every caller is expected to
// pass through the rate limiter first.
package generation
