package db

import (
	"context"
	"fmt"
	"strconv"
)

var defaultSettings = map[string]string{
	"active_theme":         "intellij",
	"theme_overrides_json": "{}",
	"strict_lookups":       "false",
}

func (s *Store) ensureDefaultSettings(ctx context.Context) error {
	for k, v := range defaultSettings {
		if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO settings(key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("seed setting %s: %w", k, err)
		}
	}
	return nil
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO settings(key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) GetAppSettings(ctx context.Context) (AppSettings, error) {
	result := AppSettings{}
	read := func(key string) (string, error) {
		v, err := s.GetSetting(ctx, key)
		if err != nil {
			if dv, ok := defaultSettings[key]; ok {
				return dv, nil
			}
			return "", err
		}
		return v, nil
	}
	var err error
	if result.ActiveTheme, err = read("active_theme"); err != nil {
		return AppSettings{}, err
	}
	if result.ThemeOverridesJSON, err = read("theme_overrides_json"); err != nil {
		return AppSettings{}, err
	}
	v, err := read("strict_lookups")
	if err != nil {
		return AppSettings{}, err
	}
	result.StrictLookups, _ = strconv.ParseBool(v)
	return result, nil
}

func (s *Store) SetAppSettings(ctx context.Context, v AppSettings) error {
	entries := map[string]string{
		"active_theme":         v.ActiveTheme,
		"theme_overrides_json": v.ThemeOverridesJSON,
		"strict_lookups":       strconv.FormatBool(v.StrictLookups),
	}
	for k, val := range entries {
		if err := s.SetSetting(ctx, k, val); err != nil {
			return err
		}
	}
	return nil
}
