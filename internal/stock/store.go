package stock

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// SnapshotLoader produces a fresh snapshot.
type SnapshotLoader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Stamper reports the freshness stamp of the backend data.
type Stamper interface {
	Stamp(ctx context.Context) (string, error)
}

// Store holds the snapshot the dashboard renders. Every reload takes a
// sequence number; a result is applied only when no later reload has been
// applied before it.
type Store struct {
	loader  SnapshotLoader
	stamper Stamper
	logger  *slog.Logger

	issued  atomic.Uint64
	refresh singleflight.Group

	mu      sync.RWMutex
	applied uint64
	current *Snapshot
	err     error
}

// NewStore wires the store to its loader.
func NewStore(loader SnapshotLoader, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{loader: loader, logger: logger}
}

// WithStamper lets Refresh skip the load while the backend stamp matches the
// applied snapshot.
func (s *Store) WithStamper(stamper Stamper) *Store {
	s.stamper = stamper
	return s
}

// Reload fetches a new snapshot and applies it unless it is stale. The
// returned values reflect the store state after the call.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	return s.reload(ctx, "")
}

func (s *Store) reload(ctx context.Context, stamp string) (*Snapshot, error) {
	seq := s.issued.Add(1)
	if stamp == "" && s.stamper != nil {
		var err error
		if stamp, err = s.stamper.Stamp(ctx); err != nil {
			s.logger.Warn("stock: stamp lookup failed", slog.Uint64("seq", seq), slog.Any("error", err))
		}
	}
	snap, err := s.loader.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied {
		s.logger.Info("stock: stale reload discarded", slog.Uint64("seq", seq), slog.Uint64("applied", s.applied))
		return s.current, s.err
	}
	s.applied = seq
	if err != nil {
		s.logger.Error("stock: reload failed", slog.Uint64("seq", seq), slog.Any("error", err))
		s.current = nil
		s.err = err
		return nil, err
	}
	snap.Seq = seq
	snap.SourceStamp = stamp
	s.current = snap
	s.err = nil
	s.logger.Info("stock: snapshot applied",
		slog.Uint64("seq", seq),
		slog.Int("products", len(snap.Products)),
		slog.String("data_stamp", snap.DataStamp),
	)
	return snap, nil
}

// Refresh runs once per page load. Without a stamper it always reloads.
// With one it keeps a healthy snapshot while the backend stamp still matches
// it. Concurrent refreshes share one load.
func (s *Store) Refresh(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	current, lastErr := s.current, s.err
	s.mu.RUnlock()

	stamp := ""
	if s.stamper != nil && current != nil && lastErr == nil {
		var err error
		stamp, err = s.stamper.Stamp(ctx)
		if err == nil && stamp == current.SourceStamp {
			return current, nil
		}
		if err != nil {
			stamp = ""
		}
	}

	ch := s.refresh.DoChan("refresh", func() (interface{}, error) {
		return s.reload(ctx, stamp)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		snap, _ := res.Val.(*Snapshot)
		return snap, res.Err
	}
}

// Current returns the applied snapshot and the error of the last applied load.
func (s *Store) Current() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.err
}
