package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/timewindow"
	goredis "github.com/redis/go-redis/v9"
)

const (
	WeeklyReportKeyPrefix           = "reports:weekly:"
	WeeklyReportGenerationKeyPrefix = "reports:weekly:gen:"
)

// Generation counters outlive the reports they guard.
const generationTTLMargin = time.Hour

func WeeklyReportKey(weekStart time.Time) string {
	return WeeklyReportKeyPrefix + timewindow.FormatDate(weekStart)
}

func WeeklyReportGenerationKey(weekStart time.Time) string {
	return WeeklyReportGenerationKeyPrefix + timewindow.FormatDate(weekStart)
}

// setIfGeneration writes KEYS[2] only while the counter in KEYS[1] still equals ARGV[1].
// A missing counter reads as "0".
var setIfGeneration = goredis.NewScript(`
local current = redis.call("GET", KEYS[1])
if (current or "0") ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

type reportCache struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

func NewReportCache(rdb goredis.Cmdable, ttl time.Duration) report.Cache {
	return &reportCache{rdb: rdb, ttl: ttl}
}

// Generation implements report.Cache.
func (c *reportCache) Generation(ctx context.Context, weekStart time.Time) (int64, error) {
	gen, err := c.rdb.Get(ctx, WeeklyReportGenerationKey(weekStart)).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read report generation: %w", err)
	}
	return gen, nil
}

// Get implements report.Cache.
func (c *reportCache) Get(ctx context.Context, weekStart time.Time) (report.WeeklyReport, error) {
	cached, err := c.rdb.Get(ctx, WeeklyReportKey(weekStart)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return report.WeeklyReport{}, report.ErrReportCacheMiss
		}
		return report.WeeklyReport{}, fmt.Errorf("failed to read cached report: %w", err)
	}

	var r report.WeeklyReport
	if err := json.Unmarshal([]byte(cached), &r); err != nil {
		return report.WeeklyReport{}, report.ErrReportCacheMiss
	}
	return r, nil
}

// Set implements report.Cache.
func (c *reportCache) Set(ctx context.Context, weekStart time.Time, gen int64, r report.WeeklyReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	stored, err := setIfGeneration.Run(ctx, c.rdb,
		[]string{WeeklyReportGenerationKey(weekStart), WeeklyReportKey(weekStart)},
		strconv.FormatInt(gen, 10), string(data), strconv.FormatInt(c.ttl.Milliseconds(), 10),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	if stored == 0 {
		return report.ErrReportCacheStale
	}
	return nil
}

// InvalidateDate implements report.CacheInvalidator. A date belongs to the seven weeks that
// start on it or on one of the six days before it.
// The generation is advanced before the report is deleted, so a computation that read the old
// generation can no longer store its result.
func (c *reportCache) InvalidateDate(ctx context.Context, workDate time.Time) error {
	weeks := InvalidationWeeks(workDate)
	reportKeys := make([]string, 0, len(weeks))

	_, err := c.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, weekStart := range weeks {
			genKey := WeeklyReportGenerationKey(weekStart)
			pipe.Incr(ctx, genKey)
			pipe.Expire(ctx, genKey, c.ttl+generationTTLMargin)
			reportKeys = append(reportKeys, WeeklyReportKey(weekStart))
		}
		pipe.Del(ctx, reportKeys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate cached reports: %w", err)
	}
	return nil
}

// InvalidationWeeks lists the week starts whose window contains workDate.
func InvalidationWeeks(workDate time.Time) []time.Time {
	day := timewindow.DateOnly(workDate)
	weeks := make([]time.Time, 0, 7)
	for offset := 0; offset < 7; offset++ {
		weeks = append(weeks, day.AddDate(0, 0, -offset))
	}
	return weeks
}
