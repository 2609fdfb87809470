package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"recipe-verifier/internal/core/pipeline"
	"recipe-verifier/internal/pkg/common"
)

// Fingerprint derives a stable cache key from the request inputs. Identical
// preferences and candidate sets always hash to the same key.
func Fingerprint(parts ...interface{}) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range parts {
		// Encoding into a hash cannot fail for our value types.
		_ = enc.Encode(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Stats is a snapshot of cache effectiveness counters.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

type entry struct {
	key       string
	result    *pipeline.Result
	expiresAt time.Time
}

// Manager is an in-process result cache with TTL expiry and LRU eviction.
// It serves as the default store when no Redis address is configured.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	maxSize int
	ttl     time.Duration
	hits    int64
	misses  int64
	stop    chan struct{}
}

// NewManager builds a Manager and starts its cleanup loop.
func NewManager(maxSize int, ttl, cleanupInterval time.Duration) *Manager {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	m := &Manager{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go m.cleanupLoop(cleanupInterval)
	return m
}

// Get returns the cached result for key, or nil on miss or expiry.
func (m *Manager) Get(key string) *pipeline.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.entries[key]
	if !ok {
		m.misses++
		common.LogCacheMiss("result", key)
		return nil
	}
	e := el.Value.(*entry)
	if time.Now().After(e.expiresAt) {
		m.removeLocked(el)
		m.misses++
		common.LogCacheMiss("result", key)
		return nil
	}
	m.order.MoveToFront(el)
	m.hits++
	common.LogCacheHit("result", key)
	return e.result
}

// Set stores a result under key, evicting the least recently used entry when
// the cache is full.
func (m *Manager) Set(key string, result *pipeline.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.entries[key]; ok {
		e := el.Value.(*entry)
		e.result = result
		e.expiresAt = time.Now().Add(m.ttl)
		m.order.MoveToFront(el)
		return
	}
	if m.order.Len() >= m.maxSize {
		if oldest := m.order.Back(); oldest != nil {
			m.removeLocked(oldest)
		}
	}
	el := m.order.PushFront(&entry{key: key, result: result, expiresAt: time.Now().Add(m.ttl)})
	m.entries[key] = el
}

// Stats reports cache counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Entries: m.order.Len(), Hits: m.hits, Misses: m.misses}
}

// Close stops the cleanup loop.
func (m *Manager) Close() {
	close(m.stop)
}

func (m *Manager) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.removeExpired()
		}
	}
}

func (m *Manager) removeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	removed := 0
	for el := m.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*entry).expiresAt) {
			m.removeLocked(el)
			removed++
		}
		el = prev
	}
	if removed > 0 {
		common.LogDebug("cache cleanup removed expired entries", zap.Int("removed", removed))
	}
}

func (m *Manager) removeLocked(el *list.Element) {
	m.order.Remove(el)
	delete(m.entries, el.Value.(*entry).key)
}
