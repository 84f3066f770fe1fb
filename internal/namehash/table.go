package namehash

import (
	"bufio"
	"embed"
	"path"
	"strings"
)

//go:embed corpus
var corpus embed.FS

// Table is a read-only list of candidate names paired with the hash that
// produced the stored values.
type Table struct {
	hash  Func
	names []string
}

// NewTable returns a Table hashing names with hash.
func NewTable(hash Func, names []string) *Table {
	return &Table{hash: hash, names: names}
}

// Len returns the number of candidates.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Lookup returns the first candidate whose hash equals h.
// The scan is linear in the number of candidates.
func (t *Table) Lookup(h uint32) (string, bool) {
	if t == nil {
		return "", false
	}
	for _, name := range t.names {
		if t.hash(name) == h {
			return name, true
		}
	}
	return "", false
}

// Family identifies an archive family with its own hash and corpus.
type Family string

// Known families.
const (
	FamilyCLU Family = "clu"
	FamilyTAB Family = "tab"
)

// Select returns the candidate table for an archive of the given family.
// The family's common corpus is always included; a corpus named after the
// archive's base name (for example "paris1.txt" for PARIS1.CLU) is appended
// when one exists.
func Select(family Family, archivePath string) *Table {
	var hash Func
	switch family {
	case FamilyCLU:
		hash = HashB
	case FamilyTAB:
		hash = HashA
	default:
		return nil
	}

	names := readCorpus(path.Join("corpus", string(family), "common.txt"))
	base := strings.ToLower(baseName(archivePath))
	if base != "" && base != "common" {
		names = append(names, readCorpus(path.Join("corpus", string(family), base+".txt"))...)
	}
	return NewTable(hash, names)
}

// readCorpus returns the non-empty, non-comment lines of an embedded corpus
// file, or nil if it does not exist.
func readCorpus(name string) []string {
	f, err := corpus.Open(name)
	if err != nil {
		return nil
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names
}

// baseName strips directories (either separator) and the extension.
func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		p = p[i+1:]
	}
	if i := strings.LastIndexByte(p, '.'); i > 0 {
		p = p[:i]
	}
	return p
}
