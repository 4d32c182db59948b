package stock

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachedSource fronts a stamped backend with the Redis snapshot cache.
// Concurrent misses for the same stamp share one backend fetch.
type CachedSource struct {
	source StampedSource
	cache  *SnapshotCache
	logger *slog.Logger
	group  singleflight.Group
}

// NewCachedSource wires the cache in front of source.
func NewCachedSource(source StampedSource, cache *SnapshotCache, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{source: source, cache: cache, logger: logger}
}

// Stamp delegates to the backend.
func (s *CachedSource) Stamp(ctx context.Context) (string, error) {
	return s.source.Stamp(ctx)
}

// Fetch returns the cached set for the current stamp or loads it.
func (s *CachedSource) Fetch(ctx context.Context) ([]RawProduct, error) {
	stamp, err := s.source.Stamp(ctx)
	if err != nil {
		return nil, err
	}
	raws, ok, err := s.cache.Get(ctx, stamp)
	if err != nil {
		s.logger.Warn("stock: snapshot cache read failed", slog.String("stamp", stamp), slog.Any("error", err))
	} else if ok {
		recordCacheHit()
		return raws, nil
	}
	recordCacheMiss()
	return s.fetchShared(ctx, stamp)
}

// Warm makes sure the snapshot for the current stamp is cached. It reports
// the row count and whether the rows were already cached.
func (s *CachedSource) Warm(ctx context.Context) (int, bool, error) {
	stamp, err := s.source.Stamp(ctx)
	if err != nil {
		return 0, false, err
	}
	if raws, ok, err := s.cache.Get(ctx, stamp); err == nil && ok {
		return len(raws), true, nil
	}
	raws, err := s.fetchShared(ctx, stamp)
	if err != nil {
		return 0, false, err
	}
	return len(raws), false, nil
}

func (s *CachedSource) fetchShared(ctx context.Context, stamp string) ([]RawProduct, error) {
	ch := s.group.DoChan(stamp, func() (interface{}, error) {
		start := time.Now()
		raws, err := s.source.Fetch(ctx)
		observeFetch(err, time.Since(start))
		if err != nil {
			return nil, err
		}
		if err := s.cache.Put(ctx, stamp, raws); err != nil {
			s.logger.Warn("stock: snapshot cache write failed", slog.String("stamp", stamp), slog.Any("error", err))
		}
		return raws, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		raws, _ := res.Val.([]RawProduct)
		return raws, nil
	}
}
