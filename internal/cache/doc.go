// Package cache implements the read-through cache used by every read path
// and the invalidator that every write path calls after it commits.
//
// The cache is an optimization, never a correctness dependency: lookup,
// decode, and write failures degrade to a direct computation and are only
// logged, and invalidation failures never fail the mutation that triggered
// them. A value is therefore at most one TTL stale relative to the durable
// store.
package cache
