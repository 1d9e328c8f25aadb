package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mentorbook/mentorbook-api/internal/models"
	"github.com/mentorbook/mentorbook-api/pkg/logger"
	"github.com/mentorbook/mentorbook-api/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const cacheName = "availability"

// AvailabilityFetcher loads an offering's availability from the store
type AvailabilityFetcher func(ctx context.Context, offeringID uuid.UUID) (*models.Availability, error)

// AvailabilityCacheInterface is the read-through projection of offering
// availability consumed by the services layer
type AvailabilityCacheInterface interface {
	Get(ctx context.Context, offeringID uuid.UUID) (*models.Availability, error)
	Invalidate(offeringID uuid.UUID)
}

// AvailabilityCache caches availability snapshots per offering. The cache is
// a projection, never authoritative: every availability write invalidates
// the entry, and the booking commit path always reads the store directly.
type AvailabilityCache struct {
	cache   *gocache.Cache
	fetcher AvailabilityFetcher
}

// NewAvailabilityCache creates an availability cache with the given TTL
func NewAvailabilityCache(fetcher AvailabilityFetcher, ttlSeconds int) *AvailabilityCache {
	ttl := time.Duration(ttlSeconds) * time.Second
	return &AvailabilityCache{
		cache:   gocache.New(ttl, 2*ttl),
		fetcher: fetcher,
	}
}

// Get returns the cached availability or fetches it on a miss
func (ac *AvailabilityCache) Get(ctx context.Context, offeringID uuid.UUID) (*models.Availability, error) {
	key := offeringID.String()

	if data, found := ac.cache.Get(key); found {
		if avail, ok := data.(*models.Availability); ok {
			metrics.CacheHits.WithLabelValues(cacheName).Inc()
			return avail, nil
		}
		ac.cache.Delete(key)
	}

	metrics.CacheMisses.WithLabelValues(cacheName).Inc()
	logger.Debug("Availability cache miss", zap.String("offering_id", key))

	avail, err := ac.fetcher(ctx, offeringID)
	if err != nil {
		return nil, err
	}

	ac.cache.SetDefault(key, avail)
	return avail, nil
}

// Invalidate drops the cached entry for an offering
func (ac *AvailabilityCache) Invalidate(offeringID uuid.UUID) {
	ac.cache.Delete(offeringID.String())
}
