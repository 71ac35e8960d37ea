// Package app implements the Application (§4.8): the outermost layer
// that runs a Pipeline Series to completion, installs a cooperative
// SIGINT/SIGTERM stop, fires the engine_run/finishing_statistics/
// exit_status Hook Bus events, and aggregates the run's final exit
// code.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forge-run/wharf/internal/frontier"
	"github.com/forge-run/wharf/internal/hookbus"
	"github.com/forge-run/wharf/internal/metadata"
	"github.com/forge-run/wharf/internal/pipeline"
	"github.com/forge-run/wharf/pkg/exitcode"
)

// Application owns one crawl run: its Pipeline Series, its frontier
// (for the post-run statistics), its Hook Bus, and the exit-code
// tracker every Session along the way reports into.
type Application struct {
	Series    pipeline.Series
	Frontier  *frontier.Frontier
	Hooks     *hookbus.Bus
	ExitCode  *exitcode.Tracker
	Finalizer metadata.CrawlFinalizer
}

// New builds an Application with a ready-to-use exit-code tracker. The
// caller wires that same tracker into every Session the Series' Crawl
// stages run, so per-URL failures feed the run's final exit code.
func New(series pipeline.Series, fr *frontier.Frontier, hooks *hookbus.Bus, finalizer metadata.CrawlFinalizer) *Application {
	return &Application{
		Series:    series,
		Frontier:  fr,
		Hooks:     hooks,
		ExitCode:  &exitcode.Tracker{},
		Finalizer: finalizer,
	}
}

// Run executes the Pipeline Series under a context that is canceled on
// SIGINT/SIGTERM, giving in-flight workers a chance to finish their
// current operation rather than being force-killed (§5 Cancellation:
// "workers finish their current session's current network operation").
// It returns the run's final aggregated exit code.
func (a *Application) Run(parent context.Context) int {
	start := time.Now()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.Hooks != nil {
		if connected, err := a.Hooks.DispatchEngineRun(ctx); connected && err != nil {
			if a.ExitCode != nil {
				a.ExitCode.Observe(exitcode.Generic)
			}
		}
	}

	runErr := a.Series.Run(ctx)
	if runErr != nil && a.ExitCode != nil {
		a.ExitCode.Observe(exitcode.Generic)
	}

	stats := a.collectStats(ctx, start)
	if a.Hooks != nil {
		a.Hooks.DispatchFinishingStatistics(ctx, hookbus.FinishingStatistics{
			URLsDone:     stats.URLsFetched,
			URLsError:    stats.URLsErrored,
			URLsSkipped:  stats.URLsSkipped,
			BytesFetched: stats.BytesWritten,
			Elapsed:      time.Since(start),
		})
	}

	code := exitcode.Success
	if a.ExitCode != nil {
		code = a.ExitCode.Code()
	}
	if code == exitcode.Success && runErr != nil {
		code = exitcode.Generic
	}
	if a.Hooks != nil {
		if overridden, err := a.Hooks.DispatchExitStatus(ctx, int(code)); err == nil {
			code = exitcode.Code(overridden)
		}
	}

	stats.ExitCode = int(code)
	if a.Finalizer != nil {
		a.Finalizer.RecordFinalStats(stats)
	}

	return int(code)
}

// collectStats derives the terminal RunStats summary from the
// frontier's final row counts, matching metadata.RunStats's rule that stats are a
// derived, after-the-fact read rather than something tracked during
// the run.
func (a *Application) collectStats(ctx context.Context, start time.Time) metadata.RunStats {
	var stats metadata.RunStats
	if a.Frontier == nil {
		stats.DurationMs = time.Since(start).Milliseconds()
		return stats
	}

	done, skipped, errored := frontier.StatusDone, frontier.StatusSkipped, frontier.StatusError
	if n, err := a.Frontier.Count(ctx, &done); err == nil {
		stats.URLsFetched = n
	}
	if n, err := a.Frontier.Count(ctx, &skipped); err == nil {
		stats.URLsSkipped = n
	}
	if n, err := a.Frontier.Count(ctx, &errored); err == nil {
		stats.URLsErrored = n
	}
	stats.DurationMs = time.Since(start).Milliseconds()
	return stats
}
