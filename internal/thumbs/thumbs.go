// Package thumbs caches asset thumbnails on disk.
package thumbs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/logging"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/metrics"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/session"
)

type entry struct {
	path       string
	size       int64
	lastAccess time.Time
}

// Cache is a size-bounded thumbnail cache. Writes are atomic (temp file then
// rename); the least recently used entry is evicted when the bound is hit.
type Cache struct {
	dir      string
	maxSize  int64
	sessions *session.Manager

	mu      sync.Mutex
	entries map[string]*entry
	size    int64
}

// New creates a thumbnail cache rooted at dir.
func New(dir string, maxSize int64, sessions *session.Manager) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create thumb cache dir: %w", err)
	}
	return &Cache{
		dir:      dir,
		maxSize:  maxSize,
		sessions: sessions,
		entries:  make(map[string]*entry),
	}, nil
}

// Get returns the local path for an asset's cached thumbnail.
func (c *Cache) Get(assetID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[assetID]
	if !ok {
		metrics.RecordThumbLookup(false)
		return "", false
	}
	e.lastAccess = time.Now()
	metrics.RecordThumbLookup(true)
	return e.path, true
}

// Fetch downloads a thumbnail through the shared session and caches it,
// returning the local path. A cached copy short-circuits the download.
func (c *Cache) Fetch(ctx context.Context, url, assetID string) (string, error) {
	if path, ok := c.Get(assetID); ok {
		return path, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.sessions.Acquire().Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch thumbnail: HTTP %d", resp.StatusCode)
	}

	return c.put(assetID, resp.Body)
}

func (c *Cache) put(assetID string, r io.Reader) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	localPath := filepath.Join(c.dir, assetID+".png")
	tempPath := localPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	written, err := io.Copy(f, r)
	f.Close()
	if err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("write thumbnail: %w", err)
	}

	for c.size+written > c.maxSize {
		if !c.evictOldest() {
			break
		}
	}

	if err := os.Rename(tempPath, localPath); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("rename temp file: %w", err)
	}

	if old, ok := c.entries[assetID]; ok {
		c.size -= old.size
	}
	c.entries[assetID] = &entry{path: localPath, size: written, lastAccess: time.Now()}
	c.size += written
	metrics.SetThumbCacheBytes(c.size)

	return localPath, nil
}

// evictOldest removes the least recently used entry. Must be called with the
// lock held.
func (c *Cache) evictOldest() bool {
	var oldest *entry
	var oldestID string

	for id, e := range c.entries {
		if oldest == nil || e.lastAccess.Before(oldest.lastAccess) {
			oldest = e
			oldestID = id
		}
	}
	if oldest == nil {
		return false
	}

	os.Remove(oldest.path)
	c.size -= oldest.size
	delete(c.entries, oldestID)
	logging.Debug("evicted thumbnail", zap.String("asset", oldestID))
	return true
}

// Stats returns the current size, bound, and entry count.
func (c *Cache) Stats() (size, maxSize int64, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size, c.maxSize, len(c.entries)
}

// Clear removes every cached thumbnail.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for id, e := range c.entries {
		os.Remove(e.path)
		c.size -= e.size
		delete(c.entries, id)
		count++
	}
	metrics.SetThumbCacheBytes(c.size)
	return count
}
