package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetAndGet(t *testing.T) {
	c := New(time.Minute)

	_, ok := c.Get("devices")
	assert.False(t, ok)

	c.Set("devices", []string{"mic-1", "cam-1"})
	value, ok := c.Get("devices")
	require.True(t, ok)
	assert.Equal(t, []string{"mic-1", "cam-1"}, value)
}

func TestCache_Expiry(t *testing.T) {
	c := New(time.Minute)
	c.SetWithTTL("short", "value", 10*time.Millisecond)

	_, ok := c.Get("short")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("short")
	assert.False(t, ok)
}

func TestCache_Overwrite(t *testing.T) {
	c := New(time.Minute)
	c.Set("key", 1)
	c.Set("key", 2)

	value, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, 2, value)
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)

	c.Clear()
	_, ok = c.Get("b")
	assert.False(t, ok)
}
