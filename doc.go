// Package pak reads the archive containers of legacy games through one
// uniform interface.
//
// A container is a single file (or a primary file plus companion files)
// holding many named members. Supported formats include Doom WAD, Quake
// PAK and WAD2, Build engine GRP, Descent HOG, Broken Sword CLU, Red Faction
// VPP, AFS, split LST/IBF, DAT/ART, TAB/BIN and DFS, and the general purpose
// ZIP, RAR and 7z formats.
//
// # Quick Start
//
// Open a package and read a member:
//
//	p, err := pak.Open("DOOM.WAD")
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	for i, e := range p.Entries() {
//	    fmt.Println(i, e.Name, e.Size)
//	}
//	data, err := p.GetByName("e1m1")
//
// The parser is chosen from the file extension. Paths without an extension
// are probed by signature. URLs starting with http:// or https:// are read
// with range requests.
//
// # Names
//
// Some formats store only a hash of each member name. Those names are
// recovered from embedded candidate lists where possible; other members get
// a hexadecimal name plus an extension sniffed from their content.
//
// # Caching
//
// [WithCache] stores materialized members in a [cache.Cache]. The
// cache/memory package provides a bounded in-memory cache and cache/disk a
// sharded on-disk cache. Caches may be shared between packages.
//
// # Filesystem View
//
// [Package.FS] returns an fs.FS over the members, so the standard io/fs
// helpers work on packages:
//
//	err := fs.WalkDir(p.FS(), ".", func(path string, d fs.DirEntry, err error) error {
//	    ...
//	})
//
// A Package is not safe for concurrent use. Open one per goroutine.
package pak
