// Package cachekey builds deterministic, namespace-prefixed cache keys from a
// namespace and a set of scalar parameters.
//
// Parameters are sorted by name and joined as
//
//	namespace:name1=value1:name2=value2
//
// so that the same parameter set always yields the same key regardless of
// map iteration order. Values are normalized to strings (page=1 and page="1"
// produce the same key) and escaped so they cannot forge a separator.
// Absent optional values (nil, "", uuid.Nil) are omitted. When the encoded
// parameters grow too long they are replaced by their SHA-256 digest; the
// namespace prefix is always kept readable so that prefix invalidation keeps
// working.
package cachekey
