package theme

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/util"
)

// BaseDefaultsID is the bundle every theme is layered on.
const BaseDefaultsID = "base"

const bundleExt = ".properties"

//go:embed bundles
var builtinBundles embed.FS

// Source opens bundles by id. Returned bundles are shared and must be cloned
// before they are modified.
type Source interface {
	Open(id string) (*props.Bundle, error)
}

// Lister is implemented by sources that can enumerate their bundles.
type Lister interface {
	List() ([]string, error)
}

// bundleCache parses every bundle at most once.
type bundleCache struct {
	mu      sync.Mutex
	bundles map[string]*props.Bundle
}

func (c *bundleCache) get(id string, load func() (*props.Bundle, error)) (*props.Bundle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.bundles[id]; ok {
		return b, nil
	}
	b, err := load()
	if err != nil {
		return nil, err
	}
	if c.bundles == nil {
		c.bundles = map[string]*props.Bundle{}
	}
	c.bundles[id] = b
	return b, nil
}

// FSSource reads "<id>.properties" files from a file system.
type FSSource struct {
	fsys  fs.FS
	cache bundleCache
}

func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// BuiltinSource returns the source for the embedded bundles.
func BuiltinSource() *FSSource {
	sub, err := fs.Sub(builtinBundles, "bundles")
	if err != nil {
		panic(err)
	}
	return NewFSSource(sub)
}

func (s *FSSource) Open(id string) (*props.Bundle, error) {
	name := id + bundleExt
	if id == "" || !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBundle, id)
	}
	return s.cache.get(id, func() (*props.Bundle, error) {
		f, err := s.fsys.Open(name)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBundle, id)
		}
		if err != nil {
			return nil, fmt.Errorf("open bundle %s: %w", id, err)
		}
		defer f.Close()
		return props.Parse(id, f)
	})
}

func (s *FSSource) List() ([]string, error) {
	var ids []string
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != bundleExt {
			return nil
		}
		ids = append(ids, strings.TrimSuffix(p, bundleExt))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// DirSource reads bundles from a directory on disk. Ids may not escape it.
type DirSource struct {
	root  string
	cache bundleCache
}

func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

func (s *DirSource) Open(id string) (*props.Bundle, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBundle, id)
	}
	full, err := util.SafeJoin(s.root, id+bundleExt)
	if err != nil {
		return nil, fmt.Errorf("open bundle %s: %w", id, err)
	}
	return s.cache.get(id, func() (*props.Bundle, error) {
		f, err := os.Open(full)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBundle, id)
		}
		if err != nil {
			return nil, fmt.Errorf("open bundle %s: %w", id, err)
		}
		defer f.Close()
		return props.Parse(id, f)
	})
}

func (s *DirSource) List() ([]string, error) {
	return NewFSSource(os.DirFS(s.root)).List()
}

// MultiSource tries each source in order and returns the first hit.
type MultiSource []Source

func (m MultiSource) Open(id string) (*props.Bundle, error) {
	for _, s := range m {
		b, err := s.Open(id)
		if errors.Is(err, ErrUnknownBundle) {
			continue
		}
		return b, err
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBundle, id)
}

func (m MultiSource) List() ([]string, error) {
	seen := map[string]struct{}{}
	var ids []string
	for _, s := range m {
		l, ok := s.(Lister)
		if !ok {
			continue
		}
		got, err := l.List()
		if err != nil {
			return nil, err
		}
		for _, id := range got {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// MapSource serves in-memory bundles by id.
type MapSource map[string]*props.Bundle

func (m MapSource) Open(id string) (*props.Bundle, error) {
	b, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBundle, id)
	}
	return b, nil
}

func (m MapSource) List() ([]string, error) {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
