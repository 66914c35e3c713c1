package util

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath = errors.New("invalid path")
	ErrEscapesRoot = errors.New("path escapes root")
)

// NormalizeID turns user input into a slash-separated resource id such as a
// bundle id or an icon name. Leading slashes, "." and ".." segments that
// would climb above the root are dropped.
func NormalizeID(p string) string {
	clean := strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	clean = strings.TrimPrefix(path.Clean("/"+clean), "/")
	if clean == "." {
		return ""
	}
	return clean
}

func absPath(p string) (string, error) {
	a, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.Clean(a), nil
}

func realPath(p string) string {
	real, err := filepath.EvalSymlinks(p)
	if err != nil {
		return p
	}
	return real
}

func withinRoot(root, target string) bool {
	if root == target {
		return true
	}
	return strings.HasPrefix(target, root+string(filepath.Separator))
}

// SafeJoin joins rel under root. The result never leaves root, including via
// symlinks. Missing targets are checked through their parent directory.
func SafeJoin(root, rel string) (string, error) {
	if strings.ContainsRune(rel, '\x00') {
		return "", ErrInvalidPath
	}
	rootAbs, err := absPath(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	joined, err := absPath(filepath.Join(rootAbs, filepath.FromSlash(NormalizeID(rel))))
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if !withinRoot(rootAbs, joined) {
		return "", ErrEscapesRoot
	}

	rootReal := realPath(rootAbs)
	target := joined
	if _, err := os.Stat(joined); err == nil {
		target = realPath(joined)
	} else if !withinRoot(rootReal, realPath(filepath.Dir(joined))) {
		return "", fmt.Errorf("%w via symlink", ErrEscapesRoot)
	}
	if !withinRoot(rootReal, target) {
		return "", fmt.Errorf("%w via symlink", ErrEscapesRoot)
	}
	return joined, nil
}
