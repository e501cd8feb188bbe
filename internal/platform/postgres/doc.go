// Package postgres provides PostgreSQL implementations of the store
// interfaces. Stores accept a store.DBTX so they can run against the
// connection pool or inside a transaction, and translate driver errors
// into store errors before returning.
package postgres
