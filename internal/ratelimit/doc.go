// Package ratelimit implements sliding-window admission control for
// expensive actions such as AI-assisted generation.
//
// Each (action, subject) pair is an independent window held entirely in a
// shared WindowStore, so the Limiter keeps no in-process counters and can
// run on any number of server instances. A request is admitted iff fewer
// than Limit requests were admitted during the trailing Window.
package ratelimit
