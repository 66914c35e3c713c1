package db

import (
	"context"
	"database/sql"
	"fmt"
)

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SaveEditorSession inserts or replaces sess and all of its edits.
func (s *Store) SaveEditorSession(ctx context.Context, sess EditorSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO editor_sessions(id, family, base, dark, high_contrast, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET family = excluded.family, base = excluded.base, dark = excluded.dark,
			high_contrast = excluded.high_contrast, updated_at = CURRENT_TIMESTAMP`,
		sess.ID, sess.Family, sess.Base, boolInt(sess.Dark), boolInt(sess.HighContrast)); err != nil {
		return fmt.Errorf("save editor session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM editor_edits WHERE session_id = ?`, sess.ID); err != nil {
		return fmt.Errorf("clear editor edits: %w", err)
	}
	positions := map[string]int{}
	for _, e := range sess.Edits {
		pos := positions[e.Layer]
		positions[e.Layer]++
		if _, err := tx.ExecContext(ctx, `INSERT INTO editor_edits(session_id, layer, position, key, value) VALUES (?, ?, ?, ?, ?)`,
			sess.ID, e.Layer, pos, e.Key, e.Value); err != nil {
			return fmt.Errorf("save editor edit %s/%s: %w", e.Layer, e.Key, err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetEditorSession(ctx context.Context, id string) (EditorSession, error) {
	return s.getEditorSession(ctx, `WHERE id = ?`, id)
}

// GetEditorSessionByFamily returns the session editing the given theme family.
func (s *Store) GetEditorSessionByFamily(ctx context.Context, family string) (EditorSession, error) {
	return s.getEditorSession(ctx, `WHERE family = ?`, family)
}

func (s *Store) getEditorSession(ctx context.Context, where string, arg string) (EditorSession, error) {
	var sess EditorSession
	var dark, hc int
	err := s.db.QueryRowContext(ctx, `SELECT id, family, base, dark, high_contrast, created_at, updated_at
		FROM editor_sessions `+where, arg).
		Scan(&sess.ID, &sess.Family, &sess.Base, &dark, &hc, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return EditorSession{}, err
	}
	sess.Dark = dark == 1
	sess.HighContrast = hc == 1
	rows, err := s.db.QueryContext(ctx, `SELECT layer, key, value FROM editor_edits
		WHERE session_id = ? ORDER BY layer, position`, sess.ID)
	if err != nil {
		return EditorSession{}, fmt.Errorf("list editor edits: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e EditorEdit
		if err := rows.Scan(&e.Layer, &e.Key, &e.Value); err != nil {
			return EditorSession{}, err
		}
		sess.Edits = append(sess.Edits, e)
	}
	return sess, rows.Err()
}

// ListEditorSessions returns the saved sessions without their edits, most
// recently updated first.
func (s *Store) ListEditorSessions(ctx context.Context) ([]EditorSession, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, family, base, dark, high_contrast, created_at, updated_at
		FROM editor_sessions ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list editor sessions: %w", err)
	}
	defer rows.Close()
	var out []EditorSession
	for rows.Next() {
		var sess EditorSession
		var dark, hc int
		if err := rows.Scan(&sess.ID, &sess.Family, &sess.Base, &dark, &hc, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, err
		}
		sess.Dark = dark == 1
		sess.HighContrast = hc == 1
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *Store) DeleteEditorSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM editor_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete editor session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
