// Package optimistic applies user intent to local view state immediately and
// reconciles it with the server once the persist call completes.
//
// Each change is an explicit command (Mutation) that knows how to apply itself
// locally, how to undo that, how to persist itself remotely and how to adopt
// the authoritative result. A Runner drives commands through the state machine
//
//	Idle -> Applied -> Confirmed | Unreconciled | RolledBack | Superseded
//
// All local transitions happen while holding the owning view's lock, so views
// never observe a half-applied command.
package optimistic

import (
	"context"
	"fmt"
	"strings"
)

// Mutation is a single optimistic command.
type Mutation interface {
	// Key identifies the resource field the mutation targets, e.g. "comment:42:pinned".
	// Only the most recently submitted mutation for a key may reconcile or roll back.
	Key() string
	// Op is a short operation name used in logs, notices and metrics.
	Op() string
	ApplyLocally()
	RollbackLocally()
	ApplyRemotely(ctx context.Context) error
	// Reconcile adopts the authoritative server result after a successful persist.
	Reconcile()
}

// Checker is implemented by mutations that must validate current local state
// before they are applied. Check runs under the view lock.
type Checker interface {
	Check() error
}

// Func adapts a set of closures to Mutation. Nil closures are no-ops.
type Func struct {
	MutationKey string
	Operation   string
	Validate    func() error
	Apply       func()
	Rollback    func()
	Persist     func(ctx context.Context) error
	Confirm     func()
}

func (f *Func) Key() string { return f.MutationKey }
func (f *Func) Op() string  { return f.Operation }

func (f *Func) Check() error {
	if f.Validate == nil {
		return nil
	}
	return f.Validate()
}

func (f *Func) ApplyLocally() {
	if f.Apply != nil {
		f.Apply()
	}
}

func (f *Func) RollbackLocally() {
	if f.Rollback != nil {
		f.Rollback()
	}
}

func (f *Func) ApplyRemotely(ctx context.Context) error {
	if f.Persist == nil {
		return nil
	}
	return f.Persist(ctx)
}

func (f *Func) Reconcile() {
	if f.Confirm != nil {
		f.Confirm()
	}
}

// State is the lifecycle position of a submitted mutation.
type State int32

const (
	Idle State = iota
	// Applied means local state has changed and the persist call is in flight.
	Applied
	// Confirmed means the server accepted the change.
	Confirmed
	// Unreconciled means the persist call failed and the optimistic value was kept.
	Unreconciled
	// RolledBack means the persist call failed and local state was restored.
	RolledBack
	// Superseded means a newer mutation on the same key owns local state, so this
	// one finished without touching it.
	Superseded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Applied:
		return "applied"
	case Confirmed:
		return "confirmed"
	case Unreconciled:
		return "unreconciled"
	case RolledBack:
		return "rolled_back"
	case Superseded:
		return "superseded"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s >= Confirmed
}

// Policy decides what happens to local state when a persist call fails.
type Policy int

const (
	// Rollback restores the value that was current before the mutation applied.
	Rollback Policy = iota
	// KeepOptimistic leaves the optimistic value in place and marks the mutation
	// Unreconciled. This matches the legacy web client.
	KeepOptimistic
)

func (p Policy) String() string {
	if p == KeepOptimistic {
		return "keep"
	}
	return "rollback"
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rollback":
		return Rollback, nil
	case "keep", "keep-optimistic", "keep_optimistic":
		return KeepOptimistic, nil
	default:
		return Rollback, fmt.Errorf("unknown failure policy %q", s)
	}
}
