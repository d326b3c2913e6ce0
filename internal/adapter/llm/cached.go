package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"quizbench/internal/cache"
	"quizbench/internal/domain"
	"quizbench/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CachedChatAdapter wraps any ChatAdapter with a response cache keyed
// by adapter id and a hash of the request. Identical prompts against
// the same model are paid for once per TTL window. Only successful
// responses are cached; failures always go back to the provider.
type CachedChatAdapter struct {
	inner   domain.ChatAdapter
	cache   domain.Cache
	ttl     time.Duration
	sfGroup singleflight.Group
}

// NewCachedChatAdapter wraps inner with the given cache and TTL.
func NewCachedChatAdapter(inner domain.ChatAdapter, c domain.Cache, ttl time.Duration) *CachedChatAdapter {
	return &CachedChatAdapter{inner: inner, cache: c, ttl: ttl}
}

func (c *CachedChatAdapter) ID() string {
	return c.inner.ID()
}

func (c *CachedChatAdapter) Send(ctx context.Context, messages []domain.Message, params map[string]any) (*domain.ChatResponse, error) {
	key := cache.GenerateCacheKey("chat", c.inner.ID(), requestHash(messages, params))

	cached, err := c.cache.Get(ctx, key)
	if err == nil {
		var resp domain.ChatResponse
		if decodeErr := json.Unmarshal([]byte(cached), &resp); decodeErr == nil {
			return &resp, nil
		}
		logger.Get().Warn("Discarding undecodable cached chat response", zap.String("key", key))
	} else if err != domain.ErrCacheMiss {
		logger.Get().Warn("Chat response cache read failed", zap.Error(err), zap.String("key", key))
	}

	res, err, _ := c.sfGroup.Do(key, func() (interface{}, error) {
		resp, sendErr := c.inner.Send(ctx, messages, params)
		if sendErr != nil {
			return nil, sendErr
		}
		if encoded, encodeErr := json.Marshal(resp); encodeErr == nil {
			if setErr := c.cache.Set(ctx, key, string(encoded), c.ttl); setErr != nil {
				logger.Get().Warn("Failed to cache chat response", zap.Error(setErr), zap.String("key", key))
			}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	resp, ok := res.(*domain.ChatResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight.Do for chat response: %T", res)
	}
	return resp, nil
}

// requestHash derives a stable key from the transcript and parameter
// bag. JSON marshaling sorts map keys, so equal requests hash equally.
func requestHash(messages []domain.Message, params map[string]any) string {
	payload, err := json.Marshal(struct {
		Messages []domain.Message `json:"messages"`
		Params   map[string]any   `json:"params"`
	}{messages, params})
	if err != nil {
		payload = []byte(fmt.Sprintf("%v|%v", messages, params))
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
