package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matthewsawatzky/themekit/internal/props"
)

var (
	ErrUnknownReference = errors.New("unknown reference")
	ErrCyclicReference  = errors.New("cyclic reference")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrMissingDefault   = errors.New("missing default")
)

type UnknownReferenceError struct {
	Key string
	Ref string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("unknown reference: %s = %%%s", e.Key, e.Ref)
}

func (e *UnknownReferenceError) Unwrap() error { return ErrUnknownReference }

// CyclicReferenceError lists the cycle starting and ending on the same key.
type CyclicReferenceError struct {
	Cycle []string
}

func (e *CyclicReferenceError) Error() string {
	return "cyclic reference: " + strings.Join(e.Cycle, " -> ")
}

func (e *CyclicReferenceError) Unwrap() error { return ErrCyclicReference }

type TypeMismatchError struct {
	Key      string
	Expected props.Kind
	Got      props.Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch for %s: expected %s, got %s", e.Key, e.Expected, e.Got)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

type MissingDefaultError struct {
	Key string
}

func (e *MissingDefaultError) Error() string {
	return "missing default: " + e.Key
}

func (e *MissingDefaultError) Unwrap() error { return ErrMissingDefault }
