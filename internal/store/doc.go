// Package store provides keyed workflow storage
//
// MemoryStore is the default and keeps workflows for the process lifetime.
// RedisStore shares workflows across processes with a TTL-bounded
// retention owned by Redis. BlobStore writes one JSON object per workflow
// to any bucket gocloud.dev can open
package store
