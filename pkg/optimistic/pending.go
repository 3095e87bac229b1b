package optimistic

import (
	"context"
	"sync"
)

// Pending tracks one submitted mutation until it resolves.
type Pending struct {
	key string
	op  string

	mu    sync.Mutex
	state State
	err   error
	done  chan struct{}
}

func newPending(key, op string) *Pending {
	return &Pending{key: key, op: op, done: make(chan struct{})}
}

func (p *Pending) Key() string { return p.key }
func (p *Pending) Op() string  { return p.op }

func (p *Pending) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the persist error, if any. It is nil until the mutation resolves.
func (p *Pending) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Done is closed once the mutation reaches a terminal state.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the mutation resolves and returns its persist error, or
// until ctx is done.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pending) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Pending) resolve(s State, err error) {
	p.mu.Lock()
	p.state = s
	p.err = err
	p.mu.Unlock()
	close(p.done)
}
