// Package hookbus is the typed event registry the Application and Web
// Session fire into (§4.9): one subscriber per hook point, explicit
// per-event dispatch methods, plain record payloads at the boundary so
// a hook implementation never sees engine-internal types.
package hookbus

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

type subscription struct {
	id       uuid.UUID
	callback any
}

// Bus is the process-wide hook registry. The zero value is ready to use.
type Bus struct {
	mu   sync.Mutex
	subs map[EventName]*subscription
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventName]*subscription)}
}

// Connect registers callback for event, returning the subscription id.
// Only one subscriber may be connected per event at a time.
func (b *Bus) Connect(event EventName, callback any) (uuid.UUID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[EventName]*subscription)
	}
	if _, exists := b.subs[event]; exists {
		return uuid.Nil, &HookError{Event: event, Cause: ErrCauseAlreadyConnected}
	}
	id := uuid.New()
	b.subs[event] = &subscription{id: id, callback: callback}
	return id, nil
}

// Disconnect removes the subscriber for event, if any.
func (b *Bus) Disconnect(event EventName) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.subs[event]; !exists {
		return &HookError{Event: event, Cause: ErrCauseNotConnected}
	}
	delete(b.subs, event)
	return nil
}

func (b *Bus) get(event EventName) any {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[event]
	if !ok {
		return nil
	}
	return sub.callback
}

func (b *Bus) DispatchResolveDNS(ctx context.Context, host string) (net.IP, bool, error) {
	cb, ok := b.get(EventResolveDNS).(ResolveDNSHookV1)
	if !ok {
		return nil, false, nil
	}
	ip, err := cb(ctx, host)
	return ip, true, err
}

func (b *Bus) DispatchAcceptURL(ctx context.Context, candidate Candidate) (Action, bool, error) {
	cb, ok := b.get(EventAcceptURL).(AcceptURLHookV1)
	if !ok {
		return ActionNormal, false, nil
	}
	action, err := cb(ctx, candidate)
	return action, true, err
}

func (b *Bus) DispatchHandlePreResponse(ctx context.Context, info ResponseInfo) (Action, bool, error) {
	cb, ok := b.get(EventHandlePreResponse).(HandlePreResponseHookV1)
	if !ok {
		return ActionNormal, false, nil
	}
	action, err := cb(ctx, info)
	return action, true, err
}

func (b *Bus) DispatchHandleResponse(ctx context.Context, info ResponseInfo) (Action, bool, error) {
	cb, ok := b.get(EventHandleResponse).(HandleResponseHookV1)
	if !ok {
		return ActionNormal, false, nil
	}
	action, err := cb(ctx, info)
	return action, true, err
}

func (b *Bus) DispatchHandleError(ctx context.Context, info ErrorInfo) (Action, bool, error) {
	cb, ok := b.get(EventHandleError).(HandleErrorHookV1)
	if !ok {
		return ActionNormal, false, nil
	}
	action, err := cb(ctx, info)
	return action, true, err
}

func (b *Bus) DispatchGetURLs(ctx context.Context, sourceURL string, discovered []string) ([]string, bool, error) {
	cb, ok := b.get(EventGetURLs).(GetURLsHookV1)
	if !ok {
		return discovered, false, nil
	}
	urls, err := cb(ctx, sourceURL, discovered)
	return urls, true, err
}

func (b *Bus) DispatchScrapeDocument(ctx context.Context, info ScrapeInfo) (Action, bool, error) {
	cb, ok := b.get(EventScrapeDocument).(ScrapeDocumentHookV1)
	if !ok {
		return ActionNormal, false, nil
	}
	action, err := cb(ctx, info)
	return action, true, err
}

// DispatchWaitTime tries a V2 subscriber (status-aware) before falling
// back to V1, since both share the same event slot.
func (b *Bus) DispatchWaitTime(ctx context.Context, url string, elapsed time.Duration, statusCode int) (time.Duration, bool, error) {
	switch cb := b.get(EventWaitTime).(type) {
	case WaitTimeHookV2:
		d, err := cb(ctx, url, elapsed, statusCode)
		return d, true, err
	case WaitTimeHookV1:
		d, err := cb(ctx, url, elapsed)
		return d, true, err
	default:
		return 0, false, nil
	}
}

func (b *Bus) DispatchEngineRun(ctx context.Context) (bool, error) {
	cb, ok := b.get(EventEngineRun).(EngineRunHookV1)
	if !ok {
		return false, nil
	}
	return true, cb(ctx)
}

func (b *Bus) DispatchFinishingStatistics(ctx context.Context, stats FinishingStatistics) (bool, error) {
	cb, ok := b.get(EventFinishingStatistics).(FinishingStatisticsHookV1)
	if !ok {
		return false, nil
	}
	return true, cb(ctx, stats)
}

// DispatchExitStatus lets a subscriber override the computed exit code.
func (b *Bus) DispatchExitStatus(ctx context.Context, code int) (int, error) {
	cb, ok := b.get(EventExitStatus).(ExitStatusHookV1)
	if !ok {
		return code, nil
	}
	return cb(ctx, code)
}
