package cache

import (
	"sync"
	"time"
)

// MemoryStore is a small in-memory key-value store with expiration.
// Access checks use it to remember meeting codes they already verified.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

type memoryItem struct {
	value      string
	expireTime time.Time
}

// NewMemoryStore creates a store that drops expired items every cleanupInterval
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	store := &MemoryStore{
		items: make(map[string]memoryItem),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go store.cleanupExpired(cleanupInterval)
	return store
}

// Set stores a key-value pair with expiration
func (ms *MemoryStore) Set(key string, value string, expiration time.Duration) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.items[key] = memoryItem{
		value:      value,
		expireTime: ms.now().Add(expiration),
	}
}

// Get retrieves a live value by key
func (ms *MemoryStore) Get(key string) (string, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	item, exists := ms.items[key]
	if !exists || ms.now().After(item.expireTime) {
		return "", false
	}
	return item.value, true
}

// Delete removes a key
func (ms *MemoryStore) Delete(key string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.items, key)
}

// Len returns the number of stored items, expired or not
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.items)
}

// Close stops the cleanup goroutine
func (ms *MemoryStore) Close() {
	ms.once.Do(func() { close(ms.stop) })
}

func (ms *MemoryStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stop:
			return
		case <-ticker.C:
			ms.purge()
		}
	}
}

func (ms *MemoryStore) purge() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	for key, item := range ms.items {
		if now.After(item.expireTime) {
			delete(ms.items, key)
		}
	}
}
