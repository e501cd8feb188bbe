// Package enrollment implements the ledger of course memberships and lesson
// progress.
//
// Per (user, course) the ledger moves between NotEnrolled and Enrolled. Per
// (user, lesson) it moves NotStarted -> InProgress -> Completed, where
// NotStarted is the absence of a progress row. The durable store's
// uniqueness constraints, not application checks, decide races: a second
// concurrent join fails on the constraint and is reported as
// ErrAlreadyEnrolled. Every successful transition invalidates the cache
// entries that depend on it before returning.
package enrollment
