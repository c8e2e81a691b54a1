// Package view loads collections and single entities for the dashboard
// pages and turns them into renderable pages: loading skeletons, filtered
// items, empty and failed states.
package view

import (
	"context"
	"errors"
	"sync"

	"github.com/individuals-mars/seller-admin/pkg/marketplace"
)

// Status is what a page should render.
type Status int

const (
	Loading Status = iota
	Ready
	Empty
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the status name in JSON pages.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Placeholders is the number of skeleton rows shown while loading.
const Placeholders = 3

var (
	ErrClosed     = errors.New("VIEW_CLOSED")
	ErrSuperseded = errors.New("LOAD_SUPERSEDED")
)

// Notifier shows a transient message.
type Notifier interface {
	Notify(message string)
}

// loader runs one fetch at a time. A newer load cancels the older one and
// Close cancels whatever is in flight.
type loader[R any] struct {
	fetch  func(ctx context.Context, s marketplace.Session) (R, error)
	notify Notifier

	mu      sync.Mutex
	result  R
	status  Status
	failure string
	lastErr error
	token   string
	started bool
	closed  bool
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
}

func (l *loader[R]) load(ctx context.Context, s marketplace.Session) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel, l.done = cancel, done
	l.token = s.Token
	l.started = true
	l.status = Loading
	l.failure = ""
	l.lastErr = nil
	l.mu.Unlock()

	defer close(done)
	defer cancel()

	res, err := l.fetch(ctx, s)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	if gen != l.gen {
		l.mu.Unlock()
		return ErrSuperseded
	}
	l.cancel = nil
	if err != nil {
		l.status = Failed
		l.failure = marketplace.Message(err)
		l.lastErr = err
		l.mu.Unlock()

		// Auth failures go back to the caller, which answers with the
		// login redirect.
		if l.notify != nil && !marketplace.NeedsLogin(err) {
			l.notify.Notify(marketplace.Message(err))
		}
		return err
	}
	l.result = res
	l.status = Ready
	l.mu.Unlock()
	return nil
}

// refresh loads unless the last load used the same token. A load already
// running for the token is awaited instead of restarted.
func (l *loader[R]) refresh(ctx context.Context, s marketplace.Session) (bool, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false, ErrClosed
	}
	if !l.started || l.token != s.Token {
		l.mu.Unlock()
		return true, l.load(ctx, s)
	}
	if l.status != Loading {
		err := l.lastErr
		l.mu.Unlock()
		return false, err
	}
	done := l.done
	l.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return false, l.lastErr
}

func (l *loader[R]) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
