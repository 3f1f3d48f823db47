// Copyright 2025 Arion Yau
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultNonceCacheSize = 50
	defaultNonceTTL       = time.Hour
	nonceCleanupInterval  = 10 * time.Minute
)

// CachedResponse is a reply already sent for a request nonce
type CachedResponse struct {
	Status    int
	Body      interface{}
	Timestamp time.Time
}

// NonceCache remembers replies per TV so a retried request carrying the same
// nonce is answered without pressing the keys again
type NonceCache struct {
	tvCaches   map[string]*lru.Cache[string, *CachedResponse]
	mutex      sync.RWMutex
	maxSize    int
	expiration time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewNonceCache creates a cache holding up to maxSize nonces per TV
func NewNonceCache(maxSize int, expiration time.Duration) *NonceCache {
	if maxSize <= 0 {
		maxSize = defaultNonceCacheSize
	}
	if expiration <= 0 {
		expiration = defaultNonceTTL
	}

	nc := &NonceCache{
		tvCaches:   make(map[string]*lru.Cache[string, *CachedResponse]),
		maxSize:    maxSize,
		expiration: expiration,
		stop:       make(chan struct{}),
	}

	go nc.cleanupExpired()

	return nc
}

func (nc *NonceCache) tvCache(tvID string) *lru.Cache[string, *CachedResponse] {
	nc.mutex.Lock()
	defer nc.mutex.Unlock()

	cache, exists := nc.tvCaches[tvID]
	if !exists {
		cache, _ = lru.New[string, *CachedResponse](nc.maxSize)
		nc.tvCaches[tvID] = cache
	}

	return cache
}

// Lookup returns the reply stored for nonce, if any and not expired
func (nc *NonceCache) Lookup(tvID, nonce string) (*CachedResponse, bool) {
	if nonce == "" {
		return nil, false
	}

	cache := nc.tvCache(tvID)
	cached, found := cache.Get(nonce)
	if !found {
		return nil, false
	}
	if time.Since(cached.Timestamp) > nc.expiration {
		cache.Remove(nonce)
		return nil, false
	}
	return cached, true
}

// Store records the reply for nonce. Server errors are not stored, so a retry
// with the same nonce reaches the TV again.
func (nc *NonceCache) Store(tvID, nonce string, status int, body interface{}) {
	if nonce == "" || status >= http.StatusInternalServerError {
		return
	}

	nc.tvCache(tvID).Add(nonce, &CachedResponse{
		Status:    status,
		Body:      body,
		Timestamp: time.Now(),
	})
}

// Len returns the number of nonces cached for a TV
func (nc *NonceCache) Len(tvID string) int {
	nc.mutex.RLock()
	cache, exists := nc.tvCaches[tvID]
	nc.mutex.RUnlock()

	if !exists {
		return 0
	}
	return cache.Len()
}

// Stats returns cache statistics
func (nc *NonceCache) Stats() map[string]interface{} {
	nc.mutex.RLock()
	defer nc.mutex.RUnlock()

	total := 0
	perTV := make(map[string]int)
	for tvID, cache := range nc.tvCaches {
		count := cache.Len()
		total += count
		perTV[tvID] = count
	}

	return map[string]interface{}{
		"total_nonces": total,
		"max_size":     nc.maxSize,
		"expiration":   nc.expiration.String(),
		"tv_stats":     perTV,
	}
}

func (nc *NonceCache) cleanupExpired() {
	ticker := time.NewTicker(nonceCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			nc.purgeExpired(time.Now())
		case <-nc.stop:
			return
		}
	}
}

// purgeExpired drops entries older than the expiration and empty per-TV caches
func (nc *NonceCache) purgeExpired(now time.Time) int {
	nc.mutex.Lock()
	defer nc.mutex.Unlock()

	expired := 0
	for tvID, cache := range nc.tvCaches {
		for _, nonce := range cache.Keys() {
			if value, found := cache.Peek(nonce); found && now.Sub(value.Timestamp) > nc.expiration {
				cache.Remove(nonce)
				expired++
			}
		}
		if cache.Len() == 0 {
			delete(nc.tvCaches, tvID)
		}
	}
	return expired
}

// Shutdown stops the cleanup goroutine and drops every entry
func (nc *NonceCache) Shutdown() {
	nc.stopOnce.Do(func() { close(nc.stop) })

	nc.mutex.Lock()
	defer nc.mutex.Unlock()
	for _, cache := range nc.tvCaches {
		cache.Purge()
	}
	nc.tvCaches = make(map[string]*lru.Cache[string, *CachedResponse])
}
