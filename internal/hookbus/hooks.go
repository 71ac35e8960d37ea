package hookbus

import (
	"context"
	"net"
	"time"
)

// Each hook point has one or more callback function types, versioned so
// a consumer can subscribe with whichever shape it needs without the
// bus having to guess a payload's fields are still relevant to it.

type ResolveDNSHookV1 func(ctx context.Context, host string) (net.IP, error)

type AcceptURLHookV1 func(ctx context.Context, candidate Candidate) (Action, error)

type HandlePreResponseHookV1 func(ctx context.Context, info ResponseInfo) (Action, error)

type HandleResponseHookV1 func(ctx context.Context, info ResponseInfo) (Action, error)

type HandleErrorHookV1 func(ctx context.Context, info ErrorInfo) (Action, error)

type GetURLsHookV1 func(ctx context.Context, sourceURL string, discovered []string) ([]string, error)

type ScrapeDocumentHookV1 func(ctx context.Context, info ScrapeInfo) (Action, error)

// WaitTimeHookV1 receives only the elapsed-since-last-request duration.
type WaitTimeHookV1 func(ctx context.Context, url string, elapsed time.Duration) (time.Duration, error)

// WaitTimeHookV2 additionally receives the status code of the response
// that triggered the wait, letting a hook scale backoff by outcome.
type WaitTimeHookV2 func(ctx context.Context, url string, elapsed time.Duration, statusCode int) (time.Duration, error)

type EngineRunHookV1 func(ctx context.Context) error

type FinishingStatisticsHookV1 func(ctx context.Context, stats FinishingStatistics) error

type ExitStatusHookV1 func(ctx context.Context, code int) (int, error)
