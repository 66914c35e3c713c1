package resolve

import (
	"log/slog"
	"sync"

	"github.com/matthewsawatzky/themekit/internal/props"
)

// Values returned for missing keys when lookups are not strict.
var (
	SentinelColor     = props.RGB(0xFF, 0x00, 0xFF)
	SentinelInt       = 0
	SentinelDimension = props.Dimension{}
	SentinelInsets    = props.Insets{}
)

// MissingLog remembers which missing keys were already reported.
type MissingLog struct {
	logger *slog.Logger
	mu     sync.Mutex
	seen   map[string]struct{}
}

func NewMissingLog(logger *slog.Logger) *MissingLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &MissingLog{logger: logger, seen: map[string]struct{}{}}
}

// Report logs key the first time it is seen and reports whether it was new.
func (m *MissingLog) Report(key string, err error) bool {
	m.mu.Lock()
	_, dup := m.seen[key]
	if !dup {
		m.seen[key] = struct{}{}
	}
	m.mu.Unlock()
	if !dup {
		m.logger.Warn("theme default unavailable", "key", key, "err", err)
	}
	return !dup
}

func (m *MissingLog) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

// Lookups is the painter-facing view of a Defaults map. In strict mode a
// missing or mistyped key is returned as an error; otherwise it is logged once
// and the matching sentinel is returned.
type Lookups struct {
	Defaults Defaults
	Strict   bool
	Missing  *MissingLog
}

func NewLookups(d Defaults, strict bool, missing *MissingLog) *Lookups {
	if missing == nil {
		missing = NewMissingLog(nil)
	}
	return &Lookups{Defaults: d, Strict: strict, Missing: missing}
}

func (l *Lookups) fail(key string, err error) error {
	if l.Strict {
		return err
	}
	l.Missing.Report(key, err)
	return nil
}

func (l *Lookups) Color(key string) (props.Color, error) {
	c, err := l.Defaults.Color(key)
	if err != nil {
		return SentinelColor, l.fail(key, err)
	}
	return c, nil
}

func (l *Lookups) Int(key string) (int, error) {
	n, err := l.Defaults.Int(key)
	if err != nil {
		return SentinelInt, l.fail(key, err)
	}
	return n, nil
}

func (l *Lookups) Bool(key string) (bool, error) {
	b, err := l.Defaults.Bool(key)
	if err != nil {
		return false, l.fail(key, err)
	}
	return b, nil
}

func (l *Lookups) Dimension(key string) (props.Dimension, error) {
	d, err := l.Defaults.Dimension(key)
	if err != nil {
		return SentinelDimension, l.fail(key, err)
	}
	return d, nil
}

func (l *Lookups) Insets(key string) (props.Insets, error) {
	i, err := l.Defaults.Insets(key)
	if err != nil {
		return SentinelInsets, l.fail(key, err)
	}
	return i, nil
}
