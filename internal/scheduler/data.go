package scheduler

import (
	"github.com/forge-run/wharf/internal/storage"
)

type CrawlingExecution struct {
	WriteResults []storage.WriteResult
}

type PipelineOutcome struct {
	Continue bool
	Retry    bool
	Abort    bool
}
