package form

import (
	"context"
	"fmt"
	"sync"

	"github.com/individuals-mars/seller-admin/pkg/marketplace"
)

// GateState is the position of a delete confirmation.
type GateState int

const (
	Confirming GateState = iota
	Deleting
	Deleted
)

func (s GateState) String() string {
	switch s {
	case Confirming:
		return "confirming"
	case Deleting:
		return "deleting"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON views.
func (s GateState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name written by MarshalText.
func (s *GateState) UnmarshalText(text []byte) error {
	for _, v := range []GateState{Confirming, Deleting, Deleted} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownState, text)
}

// DeleteGate guards a destructive call behind an explicit confirmation.
// Every attempt, including a retry after a failure, needs its own Confirm.
type DeleteGate struct {
	mu        sync.Mutex
	remove    func(ctx context.Context) error
	label     string
	navigate  string
	state     GateState
	confirmed bool
	failure   string
}

// NewDeleteGate wraps remove. label names the entity in messages and
// navigate is where the user goes after the delete.
func NewDeleteGate(label, navigate string, remove func(ctx context.Context) error) *DeleteGate {
	return &DeleteGate{
		remove:   remove,
		label:    label,
		navigate: navigate,
	}
}

// GateSnapshot is a read-only copy of the gate.
type GateSnapshot struct {
	State     GateState `json:"state"`
	Confirmed bool      `json:"confirmed"`
	Prompt    string    `json:"prompt"`
	Failure   string    `json:"failure,omitempty"`
}

// Snapshot returns the current gate state.
func (g *DeleteGate) Snapshot() GateSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return GateSnapshot{
		State:     g.state,
		Confirmed: g.confirmed,
		Prompt:    fmt.Sprintf("Are you sure you want to delete this %s?", g.label),
		Failure:   g.failure,
	}
}

// Confirm records the user's confirmation.
func (g *DeleteGate) Confirm() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case Deleted:
		return ErrAlreadyDeleted
	case Deleting:
		return ErrSubmitInFlight
	}
	g.confirmed = true
	return nil
}

// Delete performs the confirmed call. Without a prior Confirm it fails with
// ErrNotConfirmed and nothing is called.
func (g *DeleteGate) Delete(ctx context.Context) (Result, error) {
	g.mu.Lock()
	switch {
	case g.state == Deleted:
		g.mu.Unlock()
		return Result{}, ErrAlreadyDeleted
	case g.state == Deleting:
		g.mu.Unlock()
		return Result{}, ErrSubmitInFlight
	case !g.confirmed:
		g.mu.Unlock()
		return Result{}, ErrNotConfirmed
	}
	g.state = Deleting
	g.confirmed = false
	g.failure = ""
	g.mu.Unlock()

	err := g.remove(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()

	if err != nil {
		g.state = Confirming
		g.failure = marketplace.Message(err)
		return Result{}, fmt.Errorf("delete %s: %w", g.label, err)
	}
	g.state = Deleted
	return Result{
		Message:  fmt.Sprintf("%s deleted successfully", capitalize(g.label)),
		Navigate: g.navigate,
	}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}
