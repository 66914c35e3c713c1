package editor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/matthewsawatzky/themekit/internal/db"
	"github.com/matthewsawatzky/themekit/internal/registry"
	"github.com/matthewsawatzky/themekit/internal/theme"
)

// Workspace keeps at most one session per theme family. With a store,
// sessions survive restarts.
type Workspace struct {
	reg    *registry.Registry
	store  *db.Store
	logger *slog.Logger

	mu       sync.Mutex
	byID     map[string]*Session
	byFamily map[string]*Session
}

// NewWorkspace returns a workspace editing themes of reg. store may be nil.
func NewWorkspace(reg *registry.Registry, store *db.Store, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{
		reg:      reg,
		store:    store,
		logger:   logger,
		byID:     map[string]*Session{},
		byFamily: map[string]*Session{},
	}
}

// Open returns the session for d's family, resuming a stored one or starting
// a new one over d.
func (w *Workspace) Open(ctx context.Context, d theme.Descriptor) (*Session, error) {
	family := w.reg.BaseThemeOf(d).FamilyName()

	w.mu.Lock()
	defer w.mu.Unlock()
	if s, ok := w.byFamily[family]; ok {
		return s, nil
	}
	if w.store != nil {
		rec, err := w.store.GetEditorSessionByFamily(ctx, family)
		switch {
		case err == nil:
			s, err := w.restore(rec)
			if err != nil {
				return nil, err
			}
			w.add(s)
			return s, nil
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("load editor session: %w", err)
		}
	}
	s, err := NewSession(w.reg.Engine(), d, family)
	if err != nil {
		return nil, err
	}
	w.add(s)
	w.logger.Info("editor session opened", "session", s.ID(), "family", family, "base", d.Name)
	return s, nil
}

func (w *Workspace) restore(rec db.EditorSession) (*Session, error) {
	base, err := w.reg.Lookup(rec.Base)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", rec.ID, err)
	}
	return Restore(base, rec)
}

func (w *Workspace) add(s *Session) {
	w.byID[s.ID()] = s
	w.byFamily[s.Family()] = s
}

// Get returns an open session, loading it from the store if needed.
func (w *Workspace) Get(ctx context.Context, id string) (*Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s, ok := w.byID[id]; ok {
		return s, nil
	}
	if w.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	rec, err := w.store.GetEditorSession(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load editor session: %w", err)
	}
	s, err := w.restore(rec)
	if err != nil {
		return nil, err
	}
	w.add(s)
	return s, nil
}

// Sessions returns the open sessions ordered by family.
func (w *Workspace) Sessions() []*Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*Session, 0, len(w.byID))
	for _, s := range w.byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Family() < out[j].Family() })
	return out
}

// Save writes s to the store. It is a no-op without one.
func (w *Workspace) Save(ctx context.Context, s *Session) error {
	if w.store == nil {
		return nil
	}
	if err := w.store.SaveEditorSession(ctx, s.Record()); err != nil {
		return err
	}
	return nil
}

// Apply installs the session's derived theme and saves the session.
func (w *Workspace) Apply(ctx context.Context, s *Session) (*theme.Result, error) {
	res, err := s.Apply(w.reg)
	if err != nil {
		return nil, err
	}
	if err := w.Save(ctx, s); err != nil {
		return res, err
	}
	if w.store != nil {
		_ = w.store.RecordAudit(ctx, "editor", "apply", s.Family(), res.Key.Digest())
	}
	return res, nil
}

// Close drops s from the workspace. With discard it is also deleted from the
// store.
func (w *Workspace) Close(ctx context.Context, s *Session, discard bool) error {
	w.mu.Lock()
	delete(w.byID, s.ID())
	if w.byFamily[s.Family()] == s {
		delete(w.byFamily, s.Family())
	}
	w.mu.Unlock()
	if !discard || w.store == nil {
		return nil
	}
	if err := w.store.DeleteEditorSession(ctx, s.ID()); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return nil
}
