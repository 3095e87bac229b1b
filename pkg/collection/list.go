// Package collection holds ordered, append-growing lists of resources that are
// mutated in place by identifier.
package collection

// List keeps items in insertion order. It is not safe for concurrent use; the
// owning view guards it with its own lock.
type List[K comparable, T any] struct {
	idOf  func(T) K
	dedup bool
	items []T
}

type Option func(*options)

type options struct {
	dedup bool
}

// WithDedup makes Append replace an existing entry with the same id in place
// instead of adding a duplicate.
func WithDedup() Option {
	return func(o *options) { o.dedup = true }
}

func New[K comparable, T any](idOf func(T) K, opts ...Option) *List[K, T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &List[K, T]{idOf: idOf, dedup: o.dedup}
}

// Removed remembers where an item was so it can be put back.
type Removed[T any] struct {
	Index int
	Item  T
}

// Append adds items to the end. Without WithDedup an item whose id is already
// present is appended again.
func (l *List[K, T]) Append(items ...T) {
	for _, item := range items {
		if l.dedup {
			if i := l.Index(l.idOf(item)); i >= 0 {
				l.items[i] = item
				continue
			}
		}
		l.items = append(l.items, item)
	}
}

// Reset replaces the whole list, e.g. with a fresh fetch.
func (l *List[K, T]) Reset(items []T) {
	l.items = l.items[:0]
	l.Append(items...)
}

func (l *List[K, T]) Index(id K) int {
	for i, item := range l.items {
		if l.idOf(item) == id {
			return i
		}
	}
	return -1
}

func (l *List[K, T]) Get(id K) (T, bool) {
	if i := l.Index(id); i >= 0 {
		return l.items[i], true
	}
	var zero T
	return zero, false
}

// Update runs fn on the first item with the given id.
func (l *List[K, T]) Update(id K, fn func(*T)) bool {
	i := l.Index(id)
	if i < 0 {
		return false
	}
	fn(&l.items[i])
	return true
}

// Remove deletes the first item with the given id.
func (l *List[K, T]) Remove(id K) (Removed[T], bool) {
	i := l.Index(id)
	if i < 0 {
		return Removed[T]{}, false
	}
	r := Removed[T]{Index: i, Item: l.items[i]}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return r, true
}

// RemoveFunc deletes every item matching pred and returns them in the order
// they should be restored.
func (l *List[K, T]) RemoveFunc(pred func(T) bool) []Removed[T] {
	var removed []Removed[T]
	kept := l.items[:0]
	for i, item := range l.items {
		if pred(item) {
			removed = append(removed, Removed[T]{Index: i, Item: item})
			continue
		}
		kept = append(kept, item)
	}
	l.items = kept
	return removed
}

// Restore puts removed items back at their recorded positions. Items must be
// restored in ascending index order; positions past the end append.
func (l *List[K, T]) Restore(removed ...Removed[T]) {
	for _, r := range removed {
		i := r.Index
		if i > len(l.items) {
			i = len(l.items)
		}
		l.items = append(l.items, r.Item)
		copy(l.items[i+1:], l.items[i:])
		l.items[i] = r.Item
	}
}

// Items returns a copy in display order.
func (l *List[K, T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List[K, T]) Len() int {
	return len(l.items)
}
