package optimistic

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Runner submits mutations for one view. Persist calls are not tied to the
// view's lifetime: once submitted, a mutation runs to completion even if the
// view is torn down.
type Runner struct {
	locker   sync.Locker
	policy   Policy
	notifier Notifier
	logger   *zap.Logger
	timeout  time.Duration
	metrics  *metrics

	// guarded by locker
	seq    uint64
	latest map[string]uint64

	wg sync.WaitGroup
}

type Option func(*Runner)

func WithPolicy(p Policy) Option {
	return func(r *Runner) { r.policy = p }
}

func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTimeout bounds each persist call. Zero means no bound beyond the HTTP client's.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Runner) {
		if reg != nil {
			r.metrics = newMetrics(reg)
		}
	}
}

// NewRunner creates a runner whose local transitions run while holding locker,
// which must be the lock that guards the view's state.
func NewRunner(locker sync.Locker, opts ...Option) *Runner {
	r := &Runner{
		locker: locker,
		policy: Rollback,
		logger: zap.NewNop(),
		latest: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Policy() Policy {
	return r.policy
}

// Submit applies m locally before returning and persists it in the background.
// If m implements Checker and the check fails, nothing is applied and the
// check error is returned.
func (r *Runner) Submit(m Mutation) (*Pending, error) {
	p := newPending(m.Key(), m.Op())

	r.locker.Lock()
	if c, ok := m.(Checker); ok {
		if err := c.Check(); err != nil {
			r.locker.Unlock()
			return nil, err
		}
	}
	r.seq++
	seq := r.seq
	r.latest[m.Key()] = seq
	m.ApplyLocally()
	p.setState(Applied)
	r.locker.Unlock()

	r.wg.Add(1)
	go r.persist(m, p, seq)

	return p, nil
}

func (r *Runner) persist(m Mutation, p *Pending, seq uint64) {
	defer r.wg.Done()

	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	err := m.ApplyRemotely(ctx)

	r.locker.Lock()
	latest := r.latest[m.Key()] == seq
	if latest {
		delete(r.latest, m.Key())
	}

	var state State
	switch {
	case !latest:
		state = Superseded
	case err == nil:
		m.Reconcile()
		state = Confirmed
	case r.policy == Rollback:
		m.RollbackLocally()
		state = RolledBack
	default:
		state = Unreconciled
	}
	r.locker.Unlock()

	if err != nil {
		r.logger.Warn("mutation failed",
			zap.String("key", m.Key()),
			zap.String("op", m.Op()),
			zap.Stringer("state", state),
			zap.Error(err))
		if r.notifier != nil {
			r.notifier.Notify(Notice{Key: m.Key(), Op: m.Op(), State: state, Err: err})
		}
	} else {
		r.logger.Debug("mutation persisted",
			zap.String("key", m.Key()),
			zap.String("op", m.Op()),
			zap.Stringer("state", state))
	}

	r.metrics.observe(m.Op(), state)
	p.resolve(state, err)
}

// InFlight reports whether a mutation on key has not resolved yet.
// Callers must hold the view lock.
func (r *Runner) InFlight(key string) bool {
	_, ok := r.latest[key]
	return ok
}

// Wait blocks until every submitted mutation has resolved.
func (r *Runner) Wait() {
	r.wg.Wait()
}
