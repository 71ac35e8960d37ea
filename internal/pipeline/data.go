package pipeline

import "context"

// Pipeline is one stage of a Pipeline Series (§4.7). A stage marked
// Skippable lets the Series continue to the next stage when it fails;
// a non-skippable stage failing aborts the whole Series.
type Pipeline interface {
	Name() string
	Skippable() bool
	Run(ctx context.Context) error
}

// Series runs an ordered list of Pipelines sequentially, honoring each
// stage's skippability.
type Series struct {
	Stages []Pipeline
}

// Run executes every stage in order. It stops at the first
// non-skippable failure and returns that error; a skippable stage's
// error is swallowed (the caller only learns about it via whatever
// observability the stage itself performs) and the Series continues.
func (s Series) Run(ctx context.Context) error {
	for _, stage := range s.Stages {
		if err := stage.Run(ctx); err != nil {
			if !stage.Skippable() {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
