package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppSettingsDefaultsAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	got, err := s.GetAppSettings(ctx)
	if err != nil {
		t.Fatalf("GetAppSettings() unexpected error: %v", err)
	}
	if got.ActiveTheme != "intellij" || got.ThemeOverridesJSON != "{}" || got.StrictLookups {
		t.Fatalf("GetAppSettings() = %+v, want defaults", got)
	}

	want := AppSettings{ActiveTheme: "darcula", ThemeOverridesJSON: `{"accent":"#FF0000"}`, StrictLookups: true}
	if err := s.SetAppSettings(ctx, want); err != nil {
		t.Fatalf("SetAppSettings() unexpected error: %v", err)
	}
	got, err = s.GetAppSettings(ctx)
	if err != nil {
		t.Fatalf("GetAppSettings() unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("GetAppSettings() = %+v, want %+v", got, want)
	}
}

func TestEditorSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	sess := EditorSession{
		ID:     "a1",
		Family: "darcula",
		Base:   "darcula",
		Dark:   true,
		Edits: []EditorEdit{
			{Layer: "ui", Key: "zeta", Value: "1"},
			{Layer: "theme", Key: "background", Value: "#101010"},
			{Layer: "ui", Key: "alpha", Value: "%background"},
		},
	}
	if err := s.SaveEditorSession(ctx, sess); err != nil {
		t.Fatalf("SaveEditorSession() unexpected error: %v", err)
	}
	got, err := s.GetEditorSession(ctx, "a1")
	if err != nil {
		t.Fatalf("GetEditorSession() unexpected error: %v", err)
	}
	if !got.Dark || got.HighContrast || got.Family != "darcula" {
		t.Fatalf("GetEditorSession() = %+v", got)
	}
	want := []EditorEdit{
		{Layer: "theme", Key: "background", Value: "#101010"},
		{Layer: "ui", Key: "zeta", Value: "1"},
		{Layer: "ui", Key: "alpha", Value: "%background"},
	}
	if len(got.Edits) != len(want) {
		t.Fatalf("len(Edits) = %d, want %d", len(got.Edits), len(want))
	}
	for i := range want {
		if got.Edits[i] != want[i] {
			t.Fatalf("Edits[%d] = %+v, want %+v", i, got.Edits[i], want[i])
		}
	}

	sess.Edits = sess.Edits[:1]
	sess.HighContrast = true
	if err := s.SaveEditorSession(ctx, sess); err != nil {
		t.Fatalf("SaveEditorSession() unexpected error: %v", err)
	}
	got, err = s.GetEditorSessionByFamily(ctx, "darcula")
	if err != nil {
		t.Fatalf("GetEditorSessionByFamily() unexpected error: %v", err)
	}
	if len(got.Edits) != 1 || !got.HighContrast {
		t.Fatalf("GetEditorSessionByFamily() = %+v, want one edit and high contrast", got)
	}

	list, err := s.ListEditorSessions(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListEditorSessions() = %v, %v", list, err)
	}
	if err := s.DeleteEditorSession(ctx, "a1"); err != nil {
		t.Fatalf("DeleteEditorSession() unexpected error: %v", err)
	}
	if _, err := s.GetEditorSession(ctx, "a1"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("GetEditorSession() after delete error = %v, want sql.ErrNoRows", err)
	}
	if err := s.DeleteEditorSession(ctx, "a1"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("DeleteEditorSession() twice error = %v, want sql.ErrNoRows", err)
	}
}

func TestEditorSessionOnePerFamily(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.SaveEditorSession(ctx, EditorSession{ID: "a", Family: "intellij", Base: "intellij"}); err != nil {
		t.Fatalf("SaveEditorSession(a) unexpected error: %v", err)
	}
	if err := s.SaveEditorSession(ctx, EditorSession{ID: "b", Family: "intellij", Base: "intellij"}); err == nil {
		t.Fatalf("SaveEditorSession(b) succeeded for a family that already has a session")
	}
}

func TestAudit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	for _, action := range []string{"install", "edit", "install"} {
		if err := s.RecordAudit(ctx, "cli", action, "darcula", "{}"); err != nil {
			t.Fatalf("RecordAudit() unexpected error: %v", err)
		}
	}
	logs, err := s.ListAudit(ctx, 2)
	if err != nil {
		t.Fatalf("ListAudit() unexpected error: %v", err)
	}
	if len(logs) != 2 || logs[0].Action != "install" || logs[1].Action != "edit" {
		t.Fatalf("ListAudit(2) = %+v", logs)
	}
}
