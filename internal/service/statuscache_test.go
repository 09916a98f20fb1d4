package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCacheExpiresByTTL(t *testing.T) {
	now := time.Date(2026, 8, 25, 20, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := NewStatusCache(30*time.Second, clock)

	c.Set(1, []TableStatus{{TableID: 1, Label: LabelFree}})
	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Len(t, got, 1)

	now = now.Add(29 * time.Second)
	_, ok = c.Get(1)
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get(1)
	assert.False(t, ok)
}

func TestStatusCacheClampsTTL(t *testing.T) {
	now := time.Date(2026, 8, 25, 20, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := NewStatusCache(5*time.Minute, clock) // clamped to 60s

	c.Set(1, []TableStatus{{TableID: 1}})
	now = now.Add(61 * time.Second)
	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestStatusCacheInvalidate(t *testing.T) {
	c := NewStatusCache(30*time.Second, nil)
	c.Set(1, []TableStatus{{TableID: 1}})
	c.Set(2, []TableStatus{{TableID: 9}})

	c.Invalidate(1)
	_, ok := c.Get(1)
	assert.False(t, ok)
	_, ok = c.Get(2)
	assert.True(t, ok)
}

func TestStatusCacheDisabledWithZeroTTL(t *testing.T) {
	c := NewStatusCache(0, nil)
	c.Set(1, []TableStatus{{TableID: 1}})
	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestStatusCacheNilReceiverIsSafe(t *testing.T) {
	var c *StatusCache
	c.Set(1, nil)
	c.Invalidate(1)
	_, ok := c.Get(1)
	assert.False(t, ok)
}
