package application

import (
	"context"
	"time"

	"carbonprice-service/internal/domain"
)

// SourceFetcher attempts to obtain one quote from a single external source.
// A failed attempt is reported as an error and never surfaces past the chain.
type SourceFetcher interface {
	Name() string
	Fetch(ctx context.Context) (domain.Quote, error)
}

// CEADeriver computes the derived Chinese allowance quote from a reference
// EUA price.
type CEADeriver interface {
	Derive(euaPrice float64, at time.Time) domain.Quote
}

// HistoryRepo is the durable append-only store of scheduled fetch results.
type HistoryRepo interface {
	Append(ctx context.Context, rec domain.HistoryRecord) error
	List(ctx context.Context, from, to time.Time, source string, limit int) ([]domain.HistoryRecord, error)
}

// RefreshGuard bounds concurrent force-refreshes across processes.
// TryReserve returns true if key was absent and is now reserved.
type RefreshGuard interface {
	TryReserve(ctx context.Context, key string) (bool, error)
}

// NoopRefreshGuard always reserves; useful for tests/dev when Redis is disabled.
type NoopRefreshGuard struct{}

func (NoopRefreshGuard) TryReserve(context.Context, string) (bool, error) { return true, nil }

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }
