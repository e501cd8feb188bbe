// Package redis implements the shared cache and the sliding-window
// counter on top of Redis. Both stores accept a redis.UniversalClient so
// they run unchanged against a single node, a sentinel setup, or a cluster.
package redis
