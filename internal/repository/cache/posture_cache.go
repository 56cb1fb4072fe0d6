package cache

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/repository"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultCacheSize = 8 * 1024 * 1024 // bytes
	DefaultTTL       = 10 * time.Minute
)

// PostureCache wraps a posture catalog with a freecache layer. Postures are
// reference data, so entries are only evicted by TTL.
type PostureCache struct {
	next  repository.PostureRepository
	cache *freecache.Cache
	ttl   int // seconds
}

var _ repository.PostureRepository = (*PostureCache)(nil)

func NewPostureCache(next repository.PostureRepository, cacheSize int, ttl time.Duration) *PostureCache {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PostureCache{
		next:  next,
		cache: freecache.NewCache(cacheSize),
		ttl:   int(ttl.Seconds()),
	}
}

func (c *PostureCache) GetByID(ctx context.Context, id string) (*domain.Posture, error) {
	cacheKey := []byte("posture::" + id)
	if cached, err := c.cache.Get(cacheKey); err == nil {
		posture := &domain.Posture{}
		if err = json.Unmarshal(cached, posture); err == nil {
			return posture, nil
		}
		log.Errorf("failed to unmarshal posture %s from cache: %s", id, err)
	}

	posture, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(cacheKey, posture)
	return posture, nil
}

func (c *PostureCache) List(ctx context.Context, therapyType domain.TherapyType) ([]domain.Posture, error) {
	cacheKey := []byte(fmt.Sprintf("postures::%s", therapyType))
	if cached, err := c.cache.Get(cacheKey); err == nil {
		var postures []domain.Posture
		if err = json.Unmarshal(cached, &postures); err == nil {
			return postures, nil
		}
		log.Errorf("failed to unmarshal posture list %q from cache: %s", therapyType, err)
	}

	postures, err := c.next.List(ctx, therapyType)
	if err != nil {
		return nil, err
	}
	c.store(cacheKey, postures)
	return postures, nil
}

func (c *PostureCache) store(key []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal %s for cache: %s", key, err)
		return
	}
	if err = c.cache.Set(key, b, c.ttl); err != nil {
		log.Debugf("cache set %s: %s", key, err)
	}
}

// Stats reports cache hits and misses so far.
func (c *PostureCache) Stats() (hits, misses int64) {
	return c.cache.HitCount(), c.cache.MissCount()
}
