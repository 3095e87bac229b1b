package optimistic

import (
	"fmt"

	"go.uber.org/zap"
)

// Notice reports a mutation that did not persist.
type Notice struct {
	Key   string
	Op    string
	State State
	Err   error
}

func (n Notice) String() string {
	switch n.State {
	case RolledBack:
		return fmt.Sprintf("%s failed and was undone: %v", n.Op, n.Err)
	case Unreconciled:
		return fmt.Sprintf("%s failed to save: %v", n.Op, n.Err)
	default:
		return fmt.Sprintf("%s failed: %v", n.Op, n.Err)
	}
}

type Notifier interface {
	Notify(Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// ChanNotifier buffers notices on a channel. Notify never blocks; notices that do
// not fit are dropped.
type ChanNotifier struct {
	ch     chan Notice
	logger *zap.Logger
}

func NewChanNotifier(size int, logger *zap.Logger) *ChanNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChanNotifier{ch: make(chan Notice, size), logger: logger}
}

func (n *ChanNotifier) Notify(notice Notice) {
	select {
	case n.ch <- notice:
	default:
		n.logger.Warn("notice dropped, channel full",
			zap.String("key", notice.Key),
			zap.String("op", notice.Op))
	}
}

func (n *ChanNotifier) C() <-chan Notice {
	return n.ch
}

// Drain returns every notice currently buffered without blocking.
func (n *ChanNotifier) Drain() []Notice {
	var out []Notice
	for {
		select {
		case notice := <-n.ch:
			out = append(out, notice)
		default:
			return out
		}
	}
}
