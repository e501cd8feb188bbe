// Package store defines interfaces for data persistence operations on
// courses, lessons, course memberships, and lesson progress. The durable
// store is the single source of truth; its uniqueness constraints on the
// membership and progress composite keys are the only mutual exclusion
// used to prevent duplicate enrollment.
package store
