package resolve

import (
	"github.com/matthewsawatzky/themekit/internal/props"
)

// Defaults is an immutable, fully resolved mapping from key to scalar.
type Defaults struct {
	values map[string]props.Scalar
}

// NewDefaults copies values into a Defaults map.
func NewDefaults(values map[string]props.Scalar) Defaults {
	cp := make(map[string]props.Scalar, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return Defaults{values: cp}
}

func (d Defaults) Len() int { return len(d.values) }

func (d Defaults) Lookup(key string) (props.Scalar, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Get returns the value for key or a MissingDefaultError.
func (d Defaults) Get(key string) (props.Scalar, error) {
	v, ok := d.values[key]
	if !ok {
		return props.Scalar{}, &MissingDefaultError{Key: key}
	}
	return v, nil
}

func (d Defaults) Color(key string) (props.Color, error) {
	v, err := d.typed(key, props.KindColor)
	if err != nil {
		return props.Color{}, err
	}
	c, _ := v.Color()
	return c, nil
}

func (d Defaults) Int(key string) (int, error) {
	v, err := d.typed(key, props.KindInt)
	if err != nil {
		return 0, err
	}
	n, _ := v.Int()
	return int(n), nil
}

func (d Defaults) Bool(key string) (bool, error) {
	v, err := d.typed(key, props.KindBool)
	if err != nil {
		return false, err
	}
	b, _ := v.Bool()
	return b, nil
}

func (d Defaults) Float(key string) (float64, error) {
	v, err := d.Get(key)
	if err != nil {
		return 0, err
	}
	f, ok := v.Float()
	if !ok {
		return 0, &TypeMismatchError{Key: key, Expected: props.KindFloat, Got: v.Kind()}
	}
	return f, nil
}

func (d Defaults) Dimension(key string) (props.Dimension, error) {
	v, err := d.typed(key, props.KindDimension)
	if err != nil {
		return props.Dimension{}, err
	}
	dim, _ := v.Dimension()
	return dim, nil
}

func (d Defaults) Insets(key string) (props.Insets, error) {
	v, err := d.typed(key, props.KindInsets)
	if err != nil {
		return props.Insets{}, err
	}
	ins, _ := v.Insets()
	return ins, nil
}

func (d Defaults) typed(key string, kind props.Kind) (props.Scalar, error) {
	v, err := d.Get(key)
	if err != nil {
		return v, err
	}
	if v.Kind() != kind {
		return v, &TypeMismatchError{Key: key, Expected: kind, Got: v.Kind()}
	}
	return v, nil
}

// Keys returns every key in sorted order.
func (d Defaults) Keys() []string {
	return sortedKeys(d.values)
}

func (d Defaults) Equal(other Defaults) bool {
	if len(d.values) != len(other.values) {
		return false
	}
	for k, v := range d.values {
		if ov, ok := other.values[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Subset keeps only the named keys that are present.
func (d Defaults) Subset(keys []string) Defaults {
	out := make(map[string]props.Scalar, len(keys))
	for _, k := range keys {
		if v, ok := d.values[k]; ok {
			out[k] = v
		}
	}
	return Defaults{values: out}
}

// Filter keeps the entries whose kind is one of kinds.
func (d Defaults) Filter(kinds ...props.Kind) Defaults {
	out := make(map[string]props.Scalar)
	for k, v := range d.values {
		for _, kind := range kinds {
			if v.Kind() == kind {
				out[k] = v
				break
			}
		}
	}
	return Defaults{values: out}
}

// Bundle renders the map as a literal bundle with keys in sorted order.
func (d Defaults) Bundle(name string) *props.Bundle {
	b := props.NewBundle(name)
	for _, k := range d.Keys() {
		b.SetScalar(k, d.values[k])
	}
	return b
}
