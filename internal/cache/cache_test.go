package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheBasic(t *testing.T) {
	c, err := NewMemoryCache(DefaultConfig())
	require.NoError(t, err)
	defer c.Close()

	key := ResultKey("doc-digest", "table-digest")

	// 未写入时不命中
	_, found, err := c.Get(key)
	require.NoError(t, err)
	assert.False(t, found)

	// 写入后命中
	require.NoError(t, c.Set(key, `{"replacements":3}`, time.Minute))
	value, found, err := c.Get(key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"replacements":3}`, value)

	// 删除后不再命中
	require.NoError(t, c.Delete(key))
	_, found, err = c.Get(key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCacheClear(t *testing.T) {
	c, err := NewMemoryCache(DefaultConfig())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ResultKey("d1", "t1"), "a", time.Minute))
	require.NoError(t, c.Set(ResultKey("d2", "t1"), "b", time.Minute))
	require.NoError(t, c.Clear())

	_, found, err := c.Get(ResultKey("d1", "t1"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCacheExpiry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CleanupInterval = 10 * time.Millisecond
	c, err := NewMemoryCache(cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set("short-lived", "v", 20*time.Millisecond))
	time.Sleep(60 * time.Millisecond)

	_, found, err := c.Get("short-lived")
	require.NoError(t, err)
	assert.False(t, found, "过期键不应命中")
}

func TestRedisCacheBasic(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := DefaultConfig()
	cfg.Type = "redis"
	cfg.RedisAddr = mr.Addr()

	c, err := NewCache(cfg)
	require.NoError(t, err)
	defer c.Close()

	key := ResultKey("doc-digest", "table-digest")

	require.NoError(t, c.Set(key, "cached-result", time.Minute))
	value, found, err := c.Get(key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "cached-result", value)

	_, found, err = c.Get("missing-key")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Delete(key))
	_, found, err = c.Get(key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheClear(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := Config{Type: "redis", RedisAddr: mr.Addr()}
	c, err := NewCache(cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set("a", "1", 0))
	require.NoError(t, c.Set("b", "2", 0))
	require.NoError(t, c.Clear())

	_, found, err := c.Get("a")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewCacheFallsBackToMemory(t *testing.T) {
	c, err := NewCache(Config{Type: "unknown"})
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.(*MemoryCache)
	assert.True(t, ok, "未注册的类型应退回内存缓存")
}

func TestResultKey(t *testing.T) {
	assert.Equal(t, "replace:d:t", ResultKey("d", "t"))
	assert.NotEqual(t, ResultKey("d1", "t"), ResultKey("d2", "t"))
	assert.NotEqual(t, ResultKey("d", "t1"), ResultKey("d", "t2"))
}
