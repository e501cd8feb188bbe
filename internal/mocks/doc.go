// Package mocks provides in-memory implementations of the store, cache,
// window, and generator interfaces for tests.
//
// The fakes keep the semantics the production backends guarantee: the
// membership and progress stores reject duplicate composite keys, the cache
// store expires entries against an injectable clock, and the window store
// implements the same sliding window as the Redis script. Each fake exposes
// error fields for injecting backend failures and counters for asserting
// how often it was reached.
//
//	db := mocks.NewDatabase()
//	courses := mocks.NewCourseStore(db)
//	cacheStore := mocks.NewCacheStore()
//	cacheStore.GetErr = errors.New("connection refused")
package mocks
