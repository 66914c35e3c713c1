// Package resolve flattens a stack of property bundles into a fully resolved
// Defaults map.
//
// Bundles are applied low to high priority; afterwards every %reference is
// replaced by the value of the key it names. Resolution only depends on the
// flattened key set, so the order in which keys are visited never changes the
// result. Keys are still visited in sorted order to keep error reports stable.
package resolve

import (
	"sort"

	"github.com/matthewsawatzky/themekit/internal/props"
)

type mark uint8

const (
	white mark = iota
	gray
	black
)

type resolver struct {
	flat  map[string]props.RawValue
	marks map[string]mark
	done  map[string]props.Scalar
	path  []string
}

// Flatten applies bundles low-to-high and returns the raw working map.
func Flatten(stack []*props.Bundle) map[string]props.RawValue {
	flat := make(map[string]props.RawValue)
	for _, b := range stack {
		b.Each(func(key string, v props.RawValue) {
			flat[key] = v
		})
	}
	return flat
}

// Resolve flattens stack and substitutes every reference. A nil schema skips
// type checking.
func Resolve(stack []*props.Bundle, schema *Schema) (Defaults, error) {
	r := newResolver(Flatten(stack))
	for _, key := range sortedKeys(r.flat) {
		if _, err := r.visit(key); err != nil {
			return Defaults{}, err
		}
	}
	for _, key := range sortedKeys(r.flat) {
		v, err := schema.check(key, r.done[key])
		if err != nil {
			return Defaults{}, err
		}
		r.done[key] = v
	}
	return Defaults{values: r.done}, nil
}

// ResolvePartial resolves what it can and drops keys whose references are
// unknown or cyclic. Engine passes use it to look at a stack that later layers
// will complete.
func ResolvePartial(stack []*props.Bundle) Defaults {
	r := newResolver(Flatten(stack))
	out := make(map[string]props.Scalar, len(r.flat))
	for _, key := range sortedKeys(r.flat) {
		v, err := r.visit(key)
		r.path = r.path[:0]
		if err != nil {
			r.resetGray()
			continue
		}
		out[key] = v
	}
	return Defaults{values: out}
}

func newResolver(flat map[string]props.RawValue) *resolver {
	return &resolver{
		flat:  flat,
		marks: make(map[string]mark, len(flat)),
		done:  make(map[string]props.Scalar, len(flat)),
	}
}

func (r *resolver) visit(key string) (props.Scalar, error) {
	switch r.marks[key] {
	case black:
		return r.done[key], nil
	case gray:
		start := 0
		for i, k := range r.path {
			if k == key {
				start = i
				break
			}
		}
		cycle := append(append([]string(nil), r.path[start:]...), key)
		return props.Scalar{}, &CyclicReferenceError{Cycle: cycle}
	}

	raw := r.flat[key]
	if !raw.IsRef() {
		r.marks[key] = black
		r.done[key] = raw.Scalar()
		return raw.Scalar(), nil
	}

	r.marks[key] = gray
	r.path = append(r.path, key)
	target := raw.RefName()
	if _, ok := r.flat[target]; !ok {
		return props.Scalar{}, &UnknownReferenceError{Key: key, Ref: target}
	}
	v, err := r.visit(target)
	if err != nil {
		return props.Scalar{}, err
	}
	r.path = r.path[:len(r.path)-1]
	r.marks[key] = black
	r.done[key] = v
	return v, nil
}

// resetGray forgets a failed traversal so unrelated keys can still resolve.
func (r *resolver) resetGray() {
	for k, m := range r.marks {
		if m == gray {
			delete(r.marks, k)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
