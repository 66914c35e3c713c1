package resolve

import (
	"sort"

	"github.com/matthewsawatzky/themekit/internal/props"
)

// Schema declares the expected kind of well-known keys. Undeclared keys are
// accepted as they are.
type Schema struct {
	kinds     map[string]props.Kind
	fontSizes map[string]struct{}
}

func NewSchema() *Schema {
	return &Schema{kinds: map[string]props.Kind{}, fontSizes: map[string]struct{}{}}
}

// Declare records the expected kind for each key.
func (s *Schema) Declare(kind props.Kind, keys ...string) *Schema {
	for _, k := range keys {
		s.kinds[k] = kind
	}
	return s
}

// DeclareFontSize marks keys as integer font sizes subject to font scaling.
func (s *Schema) DeclareFontSize(keys ...string) *Schema {
	for _, k := range keys {
		s.kinds[k] = props.KindInt
		s.fontSizes[k] = struct{}{}
	}
	return s
}

func (s *Schema) Expect(key string) (props.Kind, bool) {
	if s == nil {
		return props.KindInvalid, false
	}
	k, ok := s.kinds[key]
	return k, ok
}

func (s *Schema) IsFontSize(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s.fontSizes[key]
	return ok
}

// FontSizeKeys returns the declared font size keys in sorted order.
func (s *Schema) FontSizeKeys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.fontSizes))
	for k := range s.fontSizes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// check validates v against the declared kind. Ints widen to floats and floats
// in [0,1] narrow to opacities.
func (s *Schema) check(key string, v props.Scalar) (props.Scalar, error) {
	want, ok := s.Expect(key)
	if !ok || want == v.Kind() {
		return v, nil
	}
	switch want {
	case props.KindFloat:
		if n, ok := v.Int(); ok {
			return props.FloatValue(float64(n)), nil
		}
	case props.KindOpacity:
		if f, ok := v.Float(); ok && f >= 0 && f <= 1 {
			return props.OpacityValue(f), nil
		}
	}
	return v, &TypeMismatchError{Key: key, Expected: want, Got: v.Kind()}
}
