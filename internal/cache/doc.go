// Package cache provides the short-lived, size-bounded value cache that sits in
// front of the schema and metadata tools. Entries expire after a TTL and the
// oldest entry is evicted when the cache is full.
package cache
