package pak

import (
	"bytes"
	"io"
	"io/fs"
	"maps"
	"slices"
	"time"

	"github.com/meigma/pak/internal/pathutil"
	"github.com/meigma/pak/internal/sizing"
)

// Interface compliance.
var (
	_ fs.FS         = (*FS)(nil)
	_ fs.StatFS     = (*FS)(nil)
	_ fs.ReadFileFS = (*FS)(nil)
	_ fs.ReadDirFS  = (*FS)(nil)
)

// FS is a read-only fs.FS view of a Package.
//
// Directories are synthesized from slash-separated member names. Members
// whose names are not valid fs paths are left out of the view, and when
// several members share a name the first one wins.
type FS struct {
	p     *Package
	files map[string]int
	dirs  map[string]struct{}
}

// FS returns a view of the package for use with io/fs helpers. The view is
// only usable while the package is open.
func (p *Package) FS() *FS {
	f := &FS{
		p:     p,
		files: make(map[string]int),
		dirs:  map[string]struct{}{".": {}},
	}
	for i, e := range p.Entries() {
		if !fs.ValidPath(e.Name) || e.Name == "." {
			continue
		}
		if _, ok := f.files[e.Name]; ok {
			continue
		}
		f.files[e.Name] = i
		pathutil.Parents(e.Name, func(dir string) {
			f.dirs[dir] = struct{}{}
		})
	}
	return f
}

// Open implements fs.FS. The member is read fully on Open.
func (f *FS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if i, ok := f.files[name]; ok {
		data, err := f.p.Get(i)
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
		return &memberFile{
			Reader: bytes.NewReader(data),
			info:   &fileInfo{name: pathutil.Base(name), size: int64(len(data))},
		}, nil
	}
	if _, ok := f.dirs[name]; ok {
		return &openDir{fsys: f, name: name}, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// Stat implements fs.StatFS without reading member content.
func (f *FS) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	if i, ok := f.files[name]; ok {
		info, err := f.info(pathutil.Base(name), i)
		if err != nil {
			return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
		}
		return info, nil
	}
	if _, ok := f.dirs[name]; ok {
		return &dirInfo{name: pathutil.Base(name)}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// ReadFile implements fs.ReadFileFS.
func (f *FS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	i, ok := f.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrNotExist}
	}
	data, err := f.p.Get(i)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	return data, nil
}

// ReadDir implements fs.ReadDirFS. Entries are sorted by name.
func (f *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	if _, ok := f.dirs[name]; !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	return f.children(name), nil
}

func (f *FS) children(dir string) []fs.DirEntry {
	prefix := pathutil.DirPrefix(dir)
	seen := make(map[string]fs.DirEntry)
	for p := range f.files {
		child, isSubDir := pathutil.Child(p, prefix)
		if child == "" {
			continue
		}
		if _, ok := seen[child]; ok && isSubDir {
			continue
		}
		if isSubDir {
			seen[child] = &dirEntry{info: &dirInfo{name: child}}
			continue
		}
		info, err := f.info(child, f.files[p])
		seen[child] = &dirEntry{info: info, err: err}
	}
	names := slices.Sorted(maps.Keys(seen))
	entries := make([]fs.DirEntry, 0, len(names))
	for _, n := range names {
		entries = append(entries, seen[n])
	}
	return entries
}

// info describes member index without reading it.
func (f *FS) info(name string, index int) (*fileInfo, error) {
	e, err := f.p.Entry(index)
	if err != nil {
		return &fileInfo{name: name}, err
	}
	size, err := sizing.ToInt64(e.Size, ErrFileSize)
	if err != nil {
		return &fileInfo{name: name}, err
	}
	return &fileInfo{name: name, size: size}, nil
}

// memberFile is an fs.File over a materialized member.
type memberFile struct {
	*bytes.Reader
	info *fileInfo
}

func (m *memberFile) Stat() (fs.FileInfo, error) { return m.info, nil }
func (m *memberFile) Close() error               { return nil }

// openDir implements fs.ReadDirFile for synthesized directories.
type openDir struct {
	fsys    *FS
	name    string
	entries []fs.DirEntry
	read    bool
}

func (d *openDir) Read(_ []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *openDir) Stat() (fs.FileInfo, error) {
	return &dirInfo{name: pathutil.Base(d.name)}, nil
}

func (d *openDir) Close() error {
	d.entries = nil
	return nil
}

func (d *openDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.read {
		d.entries = d.fsys.children(d.name)
		d.read = true
	}
	if n <= 0 {
		out := d.entries
		d.entries = nil
		return out, nil
	}
	if len(d.entries) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(d.entries))
	out := d.entries[:n:n]
	d.entries = d.entries[n:]
	return out, nil
}

// fileInfo implements fs.FileInfo for members.
type fileInfo struct {
	name string
	size int64
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return fi.size }
func (fi *fileInfo) Mode() fs.FileMode  { return 0o444 }
func (fi *fileInfo) ModTime() time.Time { return time.Time{} }
func (fi *fileInfo) IsDir() bool        { return false }
func (fi *fileInfo) Sys() any           { return nil }

// dirInfo implements fs.FileInfo for synthesized directories.
type dirInfo struct {
	name string
}

func (di *dirInfo) Name() string       { return di.name }
func (di *dirInfo) Size() int64        { return 0 }
func (di *dirInfo) Mode() fs.FileMode  { return fs.ModeDir | 0o555 }
func (di *dirInfo) ModTime() time.Time { return time.Time{} }
func (di *dirInfo) IsDir() bool        { return true }
func (di *dirInfo) Sys() any           { return nil }

// dirEntry implements fs.DirEntry by wrapping fs.FileInfo.
type dirEntry struct {
	info fs.FileInfo
	err  error
}

func (de *dirEntry) Name() string               { return de.info.Name() }
func (de *dirEntry) IsDir() bool                { return de.info.IsDir() }
func (de *dirEntry) Type() fs.FileMode          { return de.info.Mode().Type() }
func (de *dirEntry) Info() (fs.FileInfo, error) { return de.info, de.err }
