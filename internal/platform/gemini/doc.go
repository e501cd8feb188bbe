// Package gemini implements generation.Generator with Google's Gemini API.
//
// Prompts are rendered from text templates and the model is asked for a
// JSON response, which is decoded and validated before it is returned.
// Transient API failures are retried with exponential backoff and jitter.
// Blocked prompts and malformed responses are not retried.
//
// BreakerGenerator wraps any Generator in a circuit breaker so that a
// failing upstream is shed quickly with generation.ErrUnavailable instead
// of tying up request handlers for the full retry schedule.
package gemini
