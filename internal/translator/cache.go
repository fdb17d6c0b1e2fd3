package translator

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pdf-translator/internal/types"
)

const cacheVersion = "1.0"

// CacheEntry is one stored chunk translation
type CacheEntry struct {
	Hash        string    `json:"hash"`
	Source      string    `json:"source"`
	Translation string    `json:"translation"`
	CreatedAt   time.Time `json:"created_at"`
}

type cacheFile struct {
	Version string       `json:"version"`
	Entries []CacheEntry `json:"entries"`
}

// Cache stores chunk translations keyed by a SHA-256 of the source text.
// The namespace (target language and model) is part of the key so switching
// either never returns a stale translation.
type Cache struct {
	path      string
	namespace string
	entries   map[string]CacheEntry
	mu        sync.RWMutex
}

// NewCache creates an empty cache. An empty path keeps it in memory only.
func NewCache(path, namespace string) *Cache {
	return &Cache{
		path:      path,
		namespace: namespace,
		entries:   make(map[string]CacheEntry),
	}
}

func (c *Cache) Key(text string) string {
	sum := sha256.Sum256([]byte(c.namespace + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) Get(text string) (string, bool) {
	key := c.Key(text)

	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	return entry.Translation, true
}

func (c *Cache) Set(text, translation string) {
	key := c.Key(text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = CacheEntry{
		Hash:        key,
		Source:      text,
		Translation: translation,
		CreatedAt:   time.Now(),
	}
}

// Load replaces the in-memory entries with the file contents. A missing
// file leaves the cache empty.
func (c *Cache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.path == "" {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return types.NewAppError(types.ErrStorage, "failed to read cache file", err)
	}

	var file cacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return types.NewAppError(types.ErrStorage, "failed to parse cache file", err)
	}

	c.entries = make(map[string]CacheEntry, len(file.Entries))
	for _, e := range file.Entries {
		c.entries[e.Hash] = e
	}
	return nil
}

func (c *Cache) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.path == "" {
		return nil
	}

	file := cacheFile{Version: cacheVersion, Entries: make([]CacheEntry, 0, len(c.entries))}
	for _, e := range c.entries {
		file.Entries = append(file.Entries, e)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrStorage, "failed to marshal cache", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return types.NewAppError(types.ErrStorage, "failed to create cache directory", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return types.NewAppError(types.ErrStorage, "failed to write cache file", err)
	}
	return nil
}

func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]CacheEntry)
}

func (c *Cache) Path() string {
	return c.path
}
