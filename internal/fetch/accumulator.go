package fetch

// Accumulator receives the items of each page in page order.
type Accumulator[T any] interface {
	Add(items ...T)
	Len() int
}

var (
	_ Accumulator[string] = (*Set[string])(nil)
	_ Accumulator[string] = (*List[string])(nil)
)

// Set is an insertion-ordered set.
//
// The zero value is ready to use.
type Set[T comparable] struct {
	items []T
	seen  map[T]struct{}
}

// NewSet creates a [Set] holding items.
func NewSet[T comparable](items ...T) *Set[T] {
	s := &Set[T]{}
	s.Add(items...)
	return s
}

// Add inserts items not already present.
func (s *Set[T]) Add(items ...T) {
	if s.seen == nil {
		s.seen = make(map[T]struct{}, len(items))
	}
	for _, item := range items {
		if _, ok := s.seen[item]; ok {
			continue
		}
		s.seen[item] = struct{}{}
		s.items = append(s.items, item)
	}
}

// Has reports whether item is in the set.
func (s *Set[T]) Has(item T) bool {
	_, ok := s.seen[item]
	return ok
}

// Len returns the number of distinct items.
func (s *Set[T]) Len() int { return len(s.items) }

// Items returns the items in insertion order.
func (s *Set[T]) Items() []T {
	return append([]T(nil), s.items...)
}

// Difference returns the items of s that are not in other, in the order they were added to s.
func (s *Set[T]) Difference(other *Set[T]) []T {
	out := []T{}
	for _, item := range s.items {
		if other == nil || !other.Has(item) {
			out = append(out, item)
		}
	}
	return out
}

// List is an ordered, append-only accumulator.
type List[T any] struct {
	items []T
}

// NewList creates an empty [List].
func NewList[T any]() *List[T] { return &List[T]{} }

// Add appends items.
func (l *List[T]) Add(items ...T) { l.items = append(l.items, items...) }

// Len returns the number of items.
func (l *List[T]) Len() int { return len(l.items) }

// Items returns the items in the order they were added.
func (l *List[T]) Items() []T {
	return append([]T(nil), l.items...)
}
