package kv

import (
	"testing"
	"time"
)

func TestNewRedisClientTimeouts(t *testing.T) {
	c := NewRedisClient("localhost:6379")
	defer c.Close()

	opts := c.Options()
	if opts.ReadTimeout != 2*time.Second {
		t.Fatalf("read timeout = %v, want 2s", opts.ReadTimeout)
	}
	if opts.WriteTimeout != 2*time.Second {
		t.Fatalf("write timeout = %v, want 2s", opts.WriteTimeout)
	}
}
