package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/forge-run/wharf/internal/frontier"
	"github.com/forge-run/wharf/internal/session"
	"golang.org/x/sync/semaphore"
)

// idlePollInterval is how long a worker that found no todo row waits
// before asking the frontier again, rather than spinning.
const idlePollInterval = 200 * time.Millisecond

// CrawlStage is the N-worker loop (§4.7, §5): the frontier is the
// source, each worker dequeues one URLRecord, runs it through a
// session.Session, persists the outcome, and enqueues anything newly
// discovered. Every suspension point is a blocking call, never a spin.
type CrawlStage struct {
	Frontier    *frontier.Frontier
	Session     *session.Session
	Concurrency int
	MaxLevel    *int
	SeedHost    string
	SeedPath    string

	active int64
}

func (c *CrawlStage) Name() string    { return "crawl" }
func (c *CrawlStage) Skippable() bool { return false }

func (c *CrawlStage) Run(ctx context.Context) error {
	n := c.Concurrency
	if n <= 0 {
		n = 1
	}
	sem := semaphore.NewWeighted(int64(n))

	for {
		if err := ctx.Err(); err != nil {
			sem.Acquire(context.Background(), int64(n))
			return err
		}

		rec, ferr := c.Frontier.GetAndUpdate(ctx, frontier.StatusTodo, frontier.StatusInProgress, c.MaxLevel)
		if ferr != nil {
			if frontier.NotFound(ferr) {
				if atomic.LoadInt64(&c.active) == 0 {
					break
				}
				select {
				case <-time.After(idlePollInterval):
				case <-ctx.Done():
					sem.Acquire(context.Background(), int64(n))
					return ctx.Err()
				}
				continue
			}
			return ferr
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		atomic.AddInt64(&c.active, 1)
		go func(rec frontier.URLRecord) {
			defer sem.Release(1)
			defer atomic.AddInt64(&c.active, -1)
			c.processOne(ctx, rec)
		}(*rec)
	}

	// Wait for every in-flight worker to finish before declaring the
	// stage done: acquiring every slot blocks until all are released.
	if err := sem.Acquire(context.Background(), int64(n)); err == nil {
		sem.Release(int64(n))
	}
	return nil
}

func (c *CrawlStage) processOne(ctx context.Context, rec frontier.URLRecord) {
	result := c.Session.ProcessOne(ctx, rec, c.SeedHost, c.SeedPath)

	for _, d := range result.Discovered {
		c.Frontier.Add(ctx, []string{d.URL}, frontier.AddDefaults{
			Level:    rec.Level + 1,
			Referrer: frontier.StrPtr(d.Referrer),
			Inline:   d.Inline,
			LinkType: d.LinkType,
		})
	}

	update := frontier.UpdateFields{Status: &result.Status, IncrementTryCount: true}
	if result.StatusCode != nil {
		update.StatusCode = result.StatusCode
	}
	c.Frontier.Update(ctx, rec.URL, update)
}
