package history

import (
	"context"
	"sync"
	"time"

	"github.com/mstasiak/ocusage/internal/opencode"
)

// Collector decides when a daily snapshot should be written. It keeps
// the last collection date in memory only: after a restart the first
// call re-saves today's row, which is harmless because SaveSnapshot is
// an upsert keyed on the date.
type Collector struct {
	repo *Repository
	now  func() time.Time

	mu   sync.Mutex
	last time.Time // UTC midnight of the last collection; zero = never
}

func NewCollector(repo *Repository) *Collector {
	return &Collector{repo: repo, now: time.Now}
}

// CollectAndSave persists metrics as today's snapshot unless one was
// already written today by this process. Reports whether it wrote. The
// check and the write happen under one lock so concurrent callers
// cannot both decide to save.
func (c *Collector) CollectAndSave(ctx context.Context, m opencode.Metrics) (bool, error) {
	today := utcDay(c.now())

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last.Equal(today) {
		return false, nil
	}

	if err := c.repo.SaveSnapshot(ctx, today, m); err != nil {
		return false, err
	}
	c.last = today
	return true, nil
}

// ShouldCollect reports whether CollectAndSave would write, without the
// side effect.
func (c *Collector) ShouldCollect() bool {
	today := utcDay(c.now())

	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.last.Equal(today)
}

// LastCollectionDate returns the UTC day of the last collection and
// whether one has happened in this process.
func (c *Collector) LastCollectionDate() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, !c.last.IsZero()
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
