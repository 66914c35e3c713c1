package db

import (
	"context"
	"fmt"
)

func (s *Store) RecordAudit(ctx context.Context, actor, action, target, metadata string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO audit_logs(actor, action, target, metadata) VALUES (?, ?, ?, ?)`, actor, action, target, metadata)
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

func (s *Store) ListAudit(ctx context.Context, limit int) ([]AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, actor, action, target, metadata, created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()
	logs := make([]AuditLog, 0, limit)
	for rows.Next() {
		var l AuditLog
		if err := rows.Scan(&l.ID, &l.Actor, &l.Action, &l.Target, &l.Metadata, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
