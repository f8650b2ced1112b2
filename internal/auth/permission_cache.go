package auth

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// PermissionSet - разрешения пользователя
type PermissionSet map[string]struct{}

func NewPermissionSet(names []string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func (s PermissionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// HasAll - true, если есть каждое из разрешений
func (s PermissionSet) HasAll(names ...string) bool {
	for _, n := range names {
		if !s.Has(n) {
			return false
		}
	}
	return true
}

// HasAny - true, если есть хотя бы одно
func (s PermissionSet) HasAny(names ...string) bool {
	for _, n := range names {
		if s.Has(n) {
			return true
		}
	}
	return false
}

// PermissionLoader загружает разрешения пользователя из БД
type PermissionLoader func(userID string) ([]string, error)

type cacheEntry struct {
	generation uint64
	set        PermissionSet
}

// PermissionCache - кеш разрешений по userID с поколениями.
// Invalidate увеличивает поколение: записи старого поколения
// больше не отдаются, даже если загрузка шла параллельно с записью в БД.
type PermissionCache struct {
	mu         sync.Mutex
	generation uint64
	entries    *lru.LRU[string, cacheEntry]
	observe    func(hit bool)
}

// NewPermissionCache; ttl == 0 - записи живут до вытеснения или инвалидации
func NewPermissionCache(size int, ttl time.Duration) *PermissionCache {
	if size <= 0 {
		size = 1024
	}
	return &PermissionCache{
		entries: lru.NewLRU[string, cacheEntry](size, nil, ttl),
	}
}

// Get возвращает набор из кеша или загружает его через load
func (c *PermissionCache) Get(userID string, load PermissionLoader) (PermissionSet, error) {
	c.mu.Lock()
	gen := c.generation
	observe := c.observe
	if e, ok := c.entries.Get(userID); ok && e.generation == gen {
		c.mu.Unlock()
		if observe != nil {
			observe(true)
		}
		return e.set, nil
	}
	c.mu.Unlock()

	if observe != nil {
		observe(false)
	}

	names, err := load(userID)
	if err != nil {
		return nil, err
	}
	set := NewPermissionSet(names)

	c.mu.Lock()
	// Пока шла загрузка, кеш могли инвалидировать
	if gen == c.generation {
		c.entries.Add(userID, cacheEntry{generation: gen, set: set})
	}
	c.mu.Unlock()

	return set, nil
}

// SetObserver задает hook попадания/промаха (метрики)
func (c *PermissionCache) SetObserver(fn func(hit bool)) {
	c.mu.Lock()
	c.observe = fn
	c.mu.Unlock()
}

// Invalidate сбрасывает весь кеш; вызывается после каждой записи ролей/разрешений
func (c *PermissionCache) Invalidate() {
	c.mu.Lock()
	c.generation++
	c.entries.Purge()
	c.mu.Unlock()
}

// Generation - текущее поколение (для метрик и тестов)
func (c *PermissionCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *PermissionCache) Len() int {
	return c.entries.Len()
}
