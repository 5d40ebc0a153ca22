package check

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rajat069/leetcode-reminder-bot/internal/cache"
	"github.com/Rajat069/leetcode-reminder-bot/internal/metrics"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

const dailyKey = "potd"

// DailyQuestions is the read-through fetch path for the problem of the
// day: a cache hit is served directly, a miss repopulates from the origin.
type DailyQuestions struct {
	cache   *cache.TTL[potd.Question]
	source  QuestionSource
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewDailyQuestions creates the fetch path. ttl defaults to 24h.
func NewDailyQuestions(c *cache.TTL[potd.Question], source QuestionSource, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *DailyQuestions {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyQuestions{
		cache:   c,
		source:  source,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
	}
}

// Today returns the problem of the day. An origin failure is returned
// wrapped; nothing is cached in that case.
func (d *DailyQuestions) Today(ctx context.Context) (potd.Question, error) {
	if q, ok := d.cache.Get(dailyKey); ok {
		d.metrics.RecordCacheLookup(true)
		return q, nil
	}
	d.metrics.RecordCacheLookup(false)

	q, err := d.source.DailyQuestion(ctx)
	if err != nil {
		return potd.Question{}, fmt.Errorf("check: fetching daily question: %w", err)
	}
	if q.Slug == "" {
		return potd.Question{}, fmt.Errorf("check: daily question has no slug: %w", potd.ErrOriginUnavailable)
	}

	d.cache.Set(dailyKey, q, d.ttl)
	d.logger.Info("check: daily question cached", "slug", q.Slug, "title", q.Title, "ttl", d.ttl)
	return q, nil
}

// Cached returns the resident question without contacting the origin.
func (d *DailyQuestions) Cached() (potd.Question, bool) {
	return d.cache.Get(dailyKey)
}
