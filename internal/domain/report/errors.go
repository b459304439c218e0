package report

import "errors"

var (
	ErrReportCacheMiss  = errors.New("weekly report not cached")
	ErrReportCacheStale = errors.New("weekly report invalidated while it was computed")
)
