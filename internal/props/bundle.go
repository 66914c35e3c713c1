package props

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Bundle is a named, ordered set of key/value entries forming one override layer.
// Setting an existing key replaces its value but keeps its original position.
type Bundle struct {
	name    string
	entries *orderedmap.OrderedMap[string, RawValue]
}

func NewBundle(name string) *Bundle {
	return &Bundle{name: name, entries: orderedmap.New[string, RawValue]()}
}

func (b *Bundle) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

func (b *Bundle) Len() int {
	if b == nil {
		return 0
	}
	return b.entries.Len()
}

func (b *Bundle) Set(key string, v RawValue) {
	b.entries.Set(key, v)
}

// SetScalar is shorthand for Set(key, Literal(s)).
func (b *Bundle) SetScalar(key string, s Scalar) {
	b.entries.Set(key, Literal(s))
}

func (b *Bundle) Get(key string) (RawValue, bool) {
	if b == nil {
		return RawValue{}, false
	}
	return b.entries.Get(key)
}

func (b *Bundle) Delete(key string) bool {
	_, ok := b.entries.Delete(key)
	return ok
}

// Keys returns the keys in insertion order.
func (b *Bundle) Keys() []string {
	if b == nil {
		return nil
	}
	keys := make([]string, 0, b.entries.Len())
	for pair := b.entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Each visits entries in insertion order.
func (b *Bundle) Each(fn func(key string, v RawValue)) {
	if b == nil {
		return
	}
	for pair := b.entries.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Clone returns an independent copy under a new name. An empty name keeps the
// current one.
func (b *Bundle) Clone(name string) *Bundle {
	if name == "" {
		name = b.Name()
	}
	out := NewBundle(name)
	b.Each(func(key string, v RawValue) {
		out.entries.Set(key, v)
	})
	return out
}

// Merge copies all entries of other on top of b.
func (b *Bundle) Merge(other *Bundle) {
	other.Each(func(key string, v RawValue) {
		b.entries.Set(key, v)
	})
}
