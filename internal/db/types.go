package db

import "time"

// EditorSession is a saved editor session. Edits are stored per layer in
// insertion order.
type EditorSession struct {
	ID           string       `json:"id"`
	Family       string       `json:"family"`
	Base         string       `json:"base"`
	Dark         bool         `json:"dark"`
	HighContrast bool         `json:"high_contrast"`
	Edits        []EditorEdit `json:"edits"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type EditorEdit struct {
	Layer string `json:"layer"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

type AuditLog struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

type AppSettings struct {
	ActiveTheme        string `json:"active_theme"`
	ThemeOverridesJSON string `json:"theme_overrides_json"`
	StrictLookups      bool   `json:"strict_lookups"`
}
