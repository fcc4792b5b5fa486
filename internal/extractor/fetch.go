package extractor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iconidentify/mediagrab/internal/domain"
)

// DefaultFetchTimeout bounds a metadata fetch when no timeout is given.
const DefaultFetchTimeout = 45 * time.Second

// CompletenessCheck decides whether a lightweight extraction result is good
// enough to skip the full extraction.
type CompletenessCheck func(info *domain.MediaInfo) bool

// HasTitle is the default CompletenessCheck.
func HasTitle(info *domain.MediaInfo) bool {
	return info.HasTitle()
}

// FetchOptions controls FetchInfo.
type FetchOptions struct {
	Timeout time.Duration
	// ToolLocation is passed to the extractor when the media tool is available.
	ToolLocation string
	// SkipLightweight goes straight to full extraction.
	SkipLightweight bool
	// Complete overrides HasTitle as the lightweight fallback trigger.
	Complete CompletenessCheck
}

type fetchResult struct {
	info *domain.MediaInfo
	err  error
}

// handoff is a single-slot channel that accepts one deposit. Later deposits
// and seal calls are no-ops, so a racing producer can't replace a result the
// consumer already took.
type handoff struct {
	once sync.Once
	ch   chan fetchResult
}

func newHandoff() *handoff {
	return &handoff{ch: make(chan fetchResult, 1)}
}

// deposit stores r if nothing was stored yet and reports whether it did.
func (h *handoff) deposit(r fetchResult) bool {
	stored := false
	h.once.Do(func() {
		h.ch <- r
		close(h.ch)
		stored = true
	})
	return stored
}

// seal closes the slot without a value if nothing was deposited.
func (h *handoff) seal() {
	h.once.Do(func() {
		close(h.ch)
	})
}

// FetchInfo extracts metadata in a separate goroutine and waits at most
// opts.Timeout for it.
//
// On timeout the worker's context is cancelled and FetchInfo returns
// immediately. Cancellation is best-effort: a Service that ignores its
// context keeps running in the background until it finishes, so a high
// timeout rate can pile up abandoned workers.
func FetchInfo(ctx context.Context, svc Service, url string, opts FetchOptions) (*domain.MediaInfo, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	complete := opts.Complete
	if complete == nil {
		complete = HasTitle
	}

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	slot := newHandoff()
	go func() {
		defer slot.seal()
		defer func() {
			if r := recover(); r != nil {
				slot.deposit(fetchResult{err: &domain.ExtractionError{Message: fmt.Sprintf("extractor panicked: %v", r)}})
			}
		}()

		info, err := extract(workerCtx, svc, url, opts, complete)
		slot.deposit(fetchResult{info: info, err: err})
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res, ok := <-slot.ch:
		if !ok {
			return nil, domain.ErrNoResponse
		}
		if res.err != nil {
			return nil, res.err
		}
		if res.info == nil {
			return nil, domain.ErrNoResponse
		}
		return res.info, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", domain.ErrExtractionTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// extract tries the lightweight extraction first and falls back to a full
// extraction if it fails or is incomplete.
func extract(ctx context.Context, svc Service, url string, opts FetchOptions, complete CompletenessCheck) (*domain.MediaInfo, error) {
	if !opts.SkipLightweight {
		info, err := svc.ExtractInfo(ctx, url, ExtractOptions{
			Lightweight:  true,
			ToolLocation: opts.ToolLocation,
		})
		if err == nil && info != nil && complete(info) {
			return info, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	info, err := svc.ExtractInfo(ctx, url, ExtractOptions{ToolLocation: opts.ToolLocation})
	if err != nil {
		return nil, err
	}
	return info, nil
}
