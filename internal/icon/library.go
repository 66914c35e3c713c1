package icon

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

//go:embed svg
var builtinIcons embed.FS

// Library indexes templates by name: their path without the .svg extension.
type Library struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

func NewLibrary() *Library {
	return &Library{templates: map[string]*Template{}}
}

// Builtin loads the embedded icon set.
func Builtin() (*Library, error) {
	sub, err := fs.Sub(builtinIcons, "svg")
	if err != nil {
		return nil, err
	}
	lib := NewLibrary()
	if err := lib.Load(sub); err != nil {
		return nil, err
	}
	return lib, nil
}

// Load adds every .svg file of fsys, replacing templates with the same name.
func (l *Library) Load(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(p), ".svg") {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read icon %s: %w", p, err)
		}
		name := strings.TrimSuffix(p, path.Ext(p))
		t, err := ParseTemplate(name, data)
		if err != nil {
			return err
		}
		l.Add(t)
		return nil
	})
}

func (l *Library) Add(t *Template) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.templates[t.ID] = t
}

func (l *Library) Get(name string) (*Template, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIcon, name)
	}
	return t, nil
}

func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.templates))
	for n := range l.templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (l *Library) Templates() []*Template {
	names := l.Names()
	out := make([]*Template, 0, len(names))
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, n := range names {
		out = append(out, l.templates[n])
	}
	return out
}
