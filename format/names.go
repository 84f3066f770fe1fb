package format

import (
	"fmt"
	"path"
	"strings"

	"github.com/meigma/pak/internal/namehash"
	"github.com/meigma/pak/internal/sniff"
)

// NormalizeName turns a stored DOS-era name into a member path: separators
// become '/', leading separators and "./" are dropped and the name is lower-cased.
func NormalizeName(raw string) string {
	return strings.ToLower(NormalizePath(raw))
}

// NormalizePath is NormalizeName without case folding, for formats with
// case-sensitive names.
func NormalizePath(raw string) string {
	p := strings.ReplaceAll(raw, `\`, "/")
	p = strings.TrimLeft(p, "/")
	for strings.HasPrefix(p, "./") {
		p = strings.TrimLeft(p[2:], "/")
	}
	return p
}

// SniffedName builds the fallback name "<%08x id><ext>" for a member whose
// literal name is unknown, sniffing the extension from the member's bytes.
// Compressed members get no extension.
func (a *Archive) SniffedName(id uint32, e *Entry) string {
	name := fmt.Sprintf("%08x", id)
	if e.Compressed() {
		return name
	}
	src, err := a.StreamSource(e.Stream)
	if err != nil {
		return name
	}
	off, size := int64(e.Offset), int64(e.Size) //nolint:gosec // validated by Builder.Add
	return name + sniff.Extension(src, off, size)
}

// RecoverNames fills in the names of entries carrying a stored hash, using
// the candidate table; unmatched entries get a sniffed fallback name.
func (a *Archive) RecoverNames(entries []Entry, table *namehash.Table) (recovered int) {
	for i := range entries {
		e := &entries[i]
		if name, ok := table.Lookup(e.Hash); ok {
			e.Name = NormalizeName(name)
			recovered++
			continue
		}
		e.Name = a.SniffedName(e.Hash, e)
	}
	a.log().Debug("recovered names", "archive", a.Path, "recovered", recovered,
		"total", len(entries), "candidates", table.Len())
	return recovered
}

// SiblingNames returns candidate names for the companion of primary with
// extension ext (without dot). The primary's extension case is tried first,
// then lower and upper case.
func SiblingNames(primary, ext string) []string {
	cur := path.Ext(primary)
	base := strings.TrimSuffix(primary, cur)
	var first string
	if cur != "" && strings.ToUpper(cur) == cur {
		first = strings.ToUpper(ext)
	} else {
		first = strings.ToLower(ext)
	}
	names := []string{base + "." + first}
	for _, alt := range []string{strings.ToLower(ext), strings.ToUpper(ext)} {
		if alt != first {
			names = append(names, base+"."+alt)
		}
	}
	return names
}
