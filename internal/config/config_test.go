package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTTLStringOrDefault(t *testing.T) {
	cfg := &Config{}

	assert.Equal(t, time.Hour, cfg.ParseTTLStringOrDefault("1h", time.Minute))
	assert.Equal(t, 90*time.Second, cfg.ParseTTLStringOrDefault("90s", time.Minute))
	assert.Equal(t, time.Minute, cfg.ParseTTLStringOrDefault("", time.Minute))
	assert.Equal(t, time.Minute, cfg.ParseTTLStringOrDefault("soon", time.Minute))
}

func TestCacheEnabled(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.CacheEnabled())

	cfg.Redis.Address = "localhost:6379"
	assert.True(t, cfg.CacheEnabled())
}
