// Package fetch downloads source datasets into a local cache directory.
//
// The cache is keyed by file name and checked by presence only: a file that
// exists is never fetched again. Downloads are streamed to "<name>.part" and
// renamed into place once complete.
package fetch

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// partSuffix marks a download in progress.
const partSuffix = ".part"

// Cache is a directory of downloaded source files.
type Cache struct {
	dir string
}

// NewCache creates a Cache rooted at dir. The directory is created lazily.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Path returns the location of name inside the cache.
func (c *Cache) Path(name string) string {
	return filepath.Join(c.dir, name)
}

// Exists reports whether name is present in the cache.
func (c *Cache) Exists(name string) (bool, error) {
	_, err := os.Stat(c.Path(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", name, err)
}

// store copies r into the cache under name, going through a temporary
// ".part" file so that an interrupted download never looks complete.
func (c *Cache) store(name string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return 0, fmt.Errorf("create cache dir: %w", err)
	}

	final := c.Path(name)
	tmp := final + partSuffix

	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", tmp, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return n, fmt.Errorf("write %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return n, fmt.Errorf("rename %s: %w", tmp, err)
	}
	return n, nil
}
