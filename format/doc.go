// Package format defines the parser contract for legacy package formats and
// implements the built-in parsers.
//
// A Parser reads a package's table of contents from an Archive and returns a
// Directory. Parsing is all or nothing: any header or table inconsistency
// aborts the parse, and the streams the parser opened are released by Run.
//
// Every count, offset and length read from a container is range-checked
// before it sizes an allocation or a seek. Parsers enforce this through
// CheckTable and Builder.Add.
//
// Parsers have two optional capabilities:
//
//   - SiblingResolver: split-file formats whose member data lives in companion
//     files next to the primary one (LST+IBF, DAT+ART, TAB+BIN, DFS+.000).
//   - MemberLoader: attached to a Directory by formats whose members cannot be
//     read as a plain byte range (RAR, 7-Zip, ZIP).
package format
