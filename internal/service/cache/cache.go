package cache

import (
	"encoding/json"
	"time"
)

// BytesCache is a minimal cache API storing raw bytes with TTL.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}

// GetJSON loads and unmarshals a cached value into out. A miss,
// a backend error or a stale encoding all read as a miss: the caller
// recomputes.
func GetJSON(c BytesCache, key string, out any) bool {
	if c == nil {
		return false
	}
	b, ok, err := c.GetBytes(key)
	if err != nil || !ok {
		return false
	}
	return json.Unmarshal(b, out) == nil
}

// SetJSON marshals v and stores it best-effort; cache write failures
// are ignored.
func SetJSON(c BytesCache, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.SetBytes(key, b, ttl)
}
