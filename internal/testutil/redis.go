// Package testutil holds shared helpers for package tests.
package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// NewRedis starts an in-process miniredis and returns it with a client
// pointed at it. Both are cleaned up when the test ends.
func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// MustGenerateTestSecret returns a random 64-hex-char secret so test files
// never carry a hardcoded one.
func MustGenerateTestSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		panic("failed to generate random test secret: " + err.Error())
	}
	return hex.EncodeToString(bytes)
}
