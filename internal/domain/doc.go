// Package domain contains the core business entities of the learning
// platform: courses, lessons, course memberships, and per-lesson progress
// together with its state machine. It is independent of any storage,
// cache, or delivery mechanism.
package domain
