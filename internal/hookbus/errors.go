package hookbus

import (
	"fmt"

	"github.com/forge-run/wharf/pkg/failure"
)

type HookErrorCause string

const (
	ErrCauseAlreadyConnected HookErrorCause = "already connected"
	ErrCauseNotConnected     HookErrorCause = "not connected"
	ErrCauseWrongSignature   HookErrorCause = "wrong callback signature"
)

type HookError struct {
	Event EventName
	Cause HookErrorCause
}

func (e *HookError) Error() string {
	return fmt.Sprintf("hookbus: %s: %s", e.Event, e.Cause)
}

func (e *HookError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *HookError) IsRetryable() bool {
	return false
}
