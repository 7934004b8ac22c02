package sets

import "encoding/json"

// Set is a simple generic hash set for comparable keys.
// Usage: s := sets.New[string]("a","b"); s.Add("c"); if s.Has("b") {...}
type Set[T comparable] map[T]struct{}

// New creates a set pre-populated with the provided values.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts value into the set.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has returns true if v is present.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Delete removes v if present.
func (s Set[T]) Delete(v T) { delete(s, v) }

// Ordered is a set that remembers insertion order. The zero value is an
// empty set ready to use. Copies share storage; build an independent one with
// NewOrdered(o.Values()...).
type Ordered[T comparable] struct {
	items []T
	index map[T]struct{}
}

// NewOrdered returns an ordered set holding vals, first occurrence wins.
func NewOrdered[T comparable](vals ...T) Ordered[T] {
	var o Ordered[T]
	for _, v := range vals {
		o.Add(v)
	}
	return o
}

// Add appends v unless already present and reports whether it was added.
func (o *Ordered[T]) Add(v T) bool {
	if o.index == nil {
		o.index = make(map[T]struct{})
	}
	if _, ok := o.index[v]; ok {
		return false
	}
	o.index[v] = struct{}{}
	o.items = append(o.items, v)
	return true
}

// Has returns true if v is present.
func (o Ordered[T]) Has(v T) bool {
	_, ok := o.index[v]
	return ok
}

// Len returns the number of elements.
func (o Ordered[T]) Len() int { return len(o.items) }

// Values returns a copy of the elements in insertion order.
func (o Ordered[T]) Values() []T {
	if len(o.items) == 0 {
		return nil
	}
	out := make([]T, len(o.items))
	copy(out, o.items)
	return out
}

// Equal reports whether both sets hold the same elements in the same order.
func (o Ordered[T]) Equal(other Ordered[T]) bool {
	if len(o.items) != len(other.items) {
		return false
	}
	for i := range o.items {
		if o.items[i] != other.items[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a JSON array in insertion order.
func (o Ordered[T]) MarshalJSON() ([]byte, error) {
	if len(o.items) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o.items)
}
