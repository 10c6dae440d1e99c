package repository

import (
	"context"
	"time"

	"github.com/okian/gradecurve/internal/domain/report"
	"github.com/okian/gradecurve/pkg/metrics"
	"github.com/patrickmn/go-cache"
)

// CachedStore keeps recently saved or fetched reports in a TTL cache in
// front of another Store. Reports are immutable, so entries never go stale.
type CachedStore struct {
	Store
	cache *cache.Cache
}

// NewCachedStore wraps inner. A non-positive ttl returns inner unchanged.
func NewCachedStore(inner Store, ttl time.Duration) Store {
	if ttl <= 0 {
		return inner
	}
	return &CachedStore{Store: inner, cache: cache.New(ttl, 2*ttl)}
}

func (s *CachedStore) Save(ctx context.Context, r *report.Report) error {
	if err := s.Store.Save(ctx, r); err != nil {
		return err
	}
	s.cache.SetDefault(r.RunID, r)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (*report.Report, error) {
	if v, ok := s.cache.Get(id); ok {
		metrics.Default().RecordCacheLookup(true)
		return v.(*report.Report), nil
	}
	metrics.Default().RecordCacheLookup(false)

	r, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(id, r)
	return r, nil
}

// Cached reports how many reports are currently held in the cache.
func (s *CachedStore) Cached() int { return s.cache.ItemCount() }

func (s *CachedStore) Close() error {
	s.cache.Flush()
	return s.Store.Close()
}
