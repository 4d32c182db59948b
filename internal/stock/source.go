package stock

import (
	"context"
	"errors"
)

var (
	// ErrSourceUnavailable indicates the backend could not be reached.
	ErrSourceUnavailable = errors.New("stock: source unavailable")
	// ErrBadStatus indicates the backend answered with a non-success status.
	ErrBadStatus = errors.New("stock: source returned non-success status")
)

// Source fetches the raw record set.
type Source interface {
	Fetch(ctx context.Context) ([]RawProduct, error)
}

// StampedSource also reports the freshness stamp of the data it would return.
type StampedSource interface {
	Source
	Stamp(ctx context.Context) (string, error)
}

// SourceFunc adapts a function into a Source.
type SourceFunc func(ctx context.Context) ([]RawProduct, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context) ([]RawProduct, error) {
	return f(ctx)
}
