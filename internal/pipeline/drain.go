package pipeline

import (
	"context"

	"github.com/forge-run/wharf/internal/frontier"
)

// DrainStage repairs any row a previous run left in_progress (a crash
// or force-kill mid-fetch), returning it to todo before the crawl
// worker pool starts pulling from the frontier.
type DrainStage struct {
	Frontier *frontier.Frontier
}

func (DrainStage) Name() string    { return "drain" }
func (DrainStage) Skippable() bool { return false }

func (d DrainStage) Run(ctx context.Context) error {
	return d.Frontier.Release(ctx)
}
