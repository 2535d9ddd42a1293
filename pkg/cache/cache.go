// Package cache stores small advisory values between runs.
//
// Build-system plugins use it to remember the arguments a build space was
// configured with, so they can tell whether a reconfigure is needed. Nothing
// here is authoritative: a missing or unreadable entry is a miss.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"time"
)

// Cache is a key-value store for byte slices.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A positive ttl makes the entry expire;
	// stores that cannot expire entries ignore it.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON decodes the value stored under key into v. It reports false
// without error when the key is missing or does not decode.
func GetJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON stores v under key as JSON. Map keys are written sorted, so equal
// values produce equal bytes.
func SetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, 0)
}

// Changed reports whether v differs from the JSON stored under key. A
// missing entry counts as changed.
func Changed(ctx context.Context, c Cache, key string, v any) (bool, error) {
	want, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	got, ok, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return !ok || !bytes.Equal(bytes.TrimSpace(got), want), nil
}
