package disk

import (
	"cmp"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// stored is one cached member found on disk.
type stored struct {
	path    string
	size    int64
	modTime time.Time
}

// scan lists the cached members under root and their total size.
// Temp files of in-flight writes are not counted.
func scan(root string) ([]stored, int64, error) {
	var (
		files []stored
		total int64
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		files = append(files, stored{path: path, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	return files, total, err
}

// pruneDir removes the least recently used members until at most
// targetBytes remain. Get refreshes a member's modification time.
func pruneDir(root string, targetBytes int64) (freed int64, err error) {
	targetBytes = max(targetBytes, 0)

	files, remaining, err := scan(root)
	if err != nil || remaining <= targetBytes {
		return 0, err
	}

	slices.SortFunc(files, func(a, b stored) int {
		if c := a.modTime.Compare(b.modTime); c != 0 {
			return c
		}
		return cmp.Compare(a.path, b.path)
	})

	for _, f := range files {
		if remaining <= targetBytes {
			break
		}
		if err := os.Remove(f.path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return freed, err
		}
		remaining -= f.size
		freed += f.size
	}
	return freed, nil
}
