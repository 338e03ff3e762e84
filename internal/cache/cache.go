package cache

import (
	"fmt"

	"github.com/shopware/php-analyser/internal/observability"
	"github.com/tliron/commonlog"
	"github.com/vmihailenco/msgpack/v5"
)

var log = commonlog.GetLogger("php-analyser.cache")

// Storage is the backend a Cache keeps its serialized entries in
type Storage interface {
	Load(key string) ([]byte, bool)
	Save(key string, data []byte) error
	Name() string
}

// Cache memoizes values under stable string keys. Entries are only ever
// invalidated by changing the key.
type Cache struct {
	storage Storage
}

func New(storage Storage) *Cache {
	return &Cache{storage: storage}
}

// Load decodes the entry stored under key into out and reports whether there was one.
// Entries that cannot be decoded count as misses.
func (c *Cache) Load(key string, out any) bool {
	data, ok := c.storage.Load(key)
	if !ok {
		observability.CacheMisses.WithLabelValues(c.storage.Name()).Inc()
		return false
	}

	if err := msgpack.Unmarshal(data, out); err != nil {
		log.Warningf("discarding undecodable cache entry %s: %v", key, err)
		observability.CacheMisses.WithLabelValues(c.storage.Name()).Inc()
		return false
	}

	observability.CacheHits.WithLabelValues(c.storage.Name()).Inc()
	return true
}

// Save stores value under key, replacing any earlier entry
func (c *Cache) Save(key string, value any) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry %s: %w", key, err)
	}
	if err := c.storage.Save(key, data); err != nil {
		return fmt.Errorf("failed to save cache entry %s: %w", key, err)
	}
	return nil
}
