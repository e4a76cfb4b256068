// Package tls provides TLS certificate management adapters.
package tls

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/acme/autocert"
)

// CertCache implements autocert.Cache with an in-memory layer over a
// persistent cache. Account keys and certificates survive restarts through
// the backing cache; hot lookups are served from memory.
type CertCache struct {
	backing autocert.Cache
	logger  zerolog.Logger

	mu    sync.RWMutex
	cache map[string][]byte
}

// NewCertCache creates a layered cache. A nil backing cache keeps
// everything in memory, which loses the ACME account on restart.
func NewCertCache(backing autocert.Cache, logger zerolog.Logger) *CertCache {
	return &CertCache{
		backing: backing,
		logger:  logger,
		cache:   make(map[string][]byte),
	}
}

// NewDirCertCache layers memory over an autocert.DirCache rooted at dir.
func NewDirCertCache(dir string, logger zerolog.Logger) *CertCache {
	return NewCertCache(autocert.DirCache(dir), logger)
}

// Get implements autocert.Cache.
func (c *CertCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	data, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return data, nil
	}

	if c.backing == nil {
		return nil, autocert.ErrCacheMiss
	}

	data, err := c.backing.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, autocert.ErrCacheMiss) {
			c.logger.Error().Err(err).Str("key", truncateKey(key)).Msg("certificate cache read failed")
		}
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = data
	c.mu.Unlock()
	return data, nil
}

// Put implements autocert.Cache.
func (c *CertCache) Put(ctx context.Context, key string, data []byte) error {
	if c.backing != nil {
		if err := c.backing.Put(ctx, key, data); err != nil {
			c.logger.Error().Err(err).Str("key", truncateKey(key)).Msg("certificate cache write failed")
			return err
		}
	}

	c.mu.Lock()
	c.cache[key] = data
	c.mu.Unlock()

	c.logger.Debug().
		Str("key", truncateKey(key)).
		Bool("account_key", isAccountKey(key)).
		Int("bytes", len(data)).
		Msg("certificate cache stored")
	return nil
}

// Delete implements autocert.Cache.
func (c *CertCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.cache, key)
	c.mu.Unlock()

	if c.backing == nil {
		return nil
	}
	return c.backing.Delete(ctx, key)
}

// ClearMemory drops the in-memory layer.
func (c *CertCache) ClearMemory() {
	c.mu.Lock()
	c.cache = make(map[string][]byte)
	c.mu.Unlock()
}

func isAccountKey(key string) bool {
	return strings.Contains(key, "acme_account") || strings.HasPrefix(key, "+")
}

func truncateKey(key string) string {
	if len(key) > 50 {
		return key[:50] + "..."
	}
	return key
}

var _ autocert.Cache = (*CertCache)(nil)
