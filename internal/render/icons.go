package render

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DirIcons loads icons from a directory by base name. Decoded images
// are cached for the life of the provider; icon files do not change
// while the service runs.
type DirIcons struct {
	dir string

	mu    sync.Mutex
	cache map[string]image.Image
}

// NewDirIcons creates an icon provider rooted at dir.
func NewDirIcons(dir string) *DirIcons {
	return &DirIcons{
		dir:   dir,
		cache: make(map[string]image.Image),
	}
}

// Load returns the icon with the given name. Names are file names
// relative to the icon directory; path escapes are rejected.
func (d *DirIcons) Load(name string) (image.Image, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrIconNotFound)
	}
	clean := filepath.Clean(name)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("%w: %s escapes icon directory", ErrIconNotFound, name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if img, ok := d.cache[clean]; ok {
		return img, nil
	}

	f, err := os.Open(filepath.Join(d.dir, clean))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIconNotFound, name, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrIconNotFound, name, err)
	}

	d.cache[clean] = img
	return img, nil
}
