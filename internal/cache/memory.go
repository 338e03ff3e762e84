package cache

import (
	"github.com/puzpuzpuz/xsync/v4"
)

// MemoryStorage keeps entries for the lifetime of the process
type MemoryStorage struct {
	entries *xsync.Map[string, []byte]
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: xsync.NewMap[string, []byte]()}
}

func (s *MemoryStorage) Load(key string) ([]byte, bool) {
	return s.entries.Load(key)
}

func (s *MemoryStorage) Save(key string, data []byte) error {
	s.entries.Store(key, data)
	return nil
}

func (s *MemoryStorage) Name() string {
	return "memory"
}

// Len returns the number of stored entries
func (s *MemoryStorage) Len() int {
	return s.entries.Size()
}
