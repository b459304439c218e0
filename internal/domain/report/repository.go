package report

import (
	"context"
	"time"
)

// CacheInvalidator drops cached reports whose window contains workDate. Writers call it after
// every committed change to shifts or attendance.
type CacheInvalidator interface {
	InvalidateDate(ctx context.Context, workDate time.Time) error
}

// Cache stores computed weekly reports keyed by week start. Every week carries a generation
// that InvalidateDate advances, so a report computed before an invalidation is never stored.
type Cache interface {
	CacheInvalidator

	// Get returns ErrReportCacheMiss when nothing is stored for weekStart
	Get(ctx context.Context, weekStart time.Time) (WeeklyReport, error)
	// Generation is read before computing a report and handed back to Set
	Generation(ctx context.Context, weekStart time.Time) (int64, error)
	// Set returns ErrReportCacheStale when the week was invalidated after gen was read
	Set(ctx context.Context, weekStart time.Time, gen int64, report WeeklyReport) error
}

// NopCache is used when no cache backend is configured; every lookup misses.
type NopCache struct{}

func (NopCache) Get(context.Context, time.Time) (WeeklyReport, error) {
	return WeeklyReport{}, ErrReportCacheMiss
}

func (NopCache) Generation(context.Context, time.Time) (int64, error) { return 0, nil }

func (NopCache) Set(context.Context, time.Time, int64, WeeklyReport) error { return nil }

func (NopCache) InvalidateDate(context.Context, time.Time) error { return nil }
