// Package embedcache memoizes embedding calls so repeated chunks and
// queries never hit the provider twice. Keys are content hashes of
// whitespace-normalized text, so formatting-only differences share an
// entry.
package embedcache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"

	"github.com/aris-ai/aris/internal/provider"
)

const DefaultMaxEntries = 10000

// Cache wraps an Embedder and satisfies provider.Embedder itself, so
// it drops into any pipeline stage transparently.
type Cache struct {
	embedder   provider.Embedder
	maxEntries int

	mu      sync.Mutex
	entries map[string][]float32
}

type Option func(*Cache)

func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

func New(embedder provider.Embedder, opts ...Option) *Cache {
	c := &Cache{
		embedder:   embedder,
		maxEntries: DefaultMaxEntries,
		entries:    make(map[string][]float32),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the cache key for a text: the hex MD5 of its
// lowercased, whitespace-collapsed form.
func Key(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	key := Key(q)

	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := c.embedder.EmbedQuery(ctx, q)
	if err != nil {
		return nil, err
	}

	c.put(key, v)
	return v, nil
}

// EmbedTexts embeds only the texts missing from the cache and returns
// one vector per input, in input order. Duplicate inputs within a
// single call resolve to a single provider embedding.
func (c *Cache) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	keys := make([]string, len(texts))

	missing := make([]string, 0)
	missingKeys := make([]string, 0)
	seen := make(map[string]struct{})

	c.mu.Lock()
	for i, text := range texts {
		keys[i] = Key(text)
		if v, ok := c.entries[keys[i]]; ok {
			vectors[i] = v
			continue
		}
		if _, dup := seen[keys[i]]; dup {
			continue
		}
		seen[keys[i]] = struct{}{}
		missing = append(missing, text)
		missingKeys = append(missingKeys, keys[i])
	}
	c.mu.Unlock()

	if len(missing) > 0 {
		embedded, err := c.embedder.EmbedTexts(ctx, missing)
		if err != nil {
			return nil, err
		}
		fresh := make(map[string][]float32, len(missingKeys))
		for i, key := range missingKeys {
			c.put(key, embedded[i])
			fresh[key] = embedded[i]
		}
		for i := range texts {
			if vectors[i] == nil {
				vectors[i] = fresh[keys[i]]
			}
		}
	}

	return vectors, nil
}

func (c *Cache) GetDimensions() uint {
	return c.embedder.GetDimensions()
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) put(key string, v []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxEntries {
		slog.Warn("embedding cache full, clearing", "entries", len(c.entries))
		c.entries = make(map[string][]float32)
	}
	c.entries[key] = v
}
