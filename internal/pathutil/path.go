// Package pathutil provides path manipulation for slash-separated member paths.
package pathutil

import "strings"

// Base returns the last element of a slash-separated path.
// If path is empty or ".", it returns ".".
func Base(path string) string {
	if path == "" || path == "." {
		return "."
	}
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// DirPrefix converts a directory name to the prefix its members share.
// For ".", returns "" (empty prefix matches all).
func DirPrefix(name string) string {
	if name == "." {
		return ""
	}
	return name + "/"
}

// Child extracts the immediate child name of path below prefix and reports
// whether it is a subdirectory. It returns "" if path is not below prefix.
func Child(path, prefix string) (name string, isSubDir bool) {
	rel, ok := strings.CutPrefix(path, prefix)
	if !ok {
		return "", false
	}
	if idx := strings.Index(rel, "/"); idx >= 0 {
		return rel[:idx], true
	}
	return rel, false
}

// Parents calls yield for every proper ancestor directory of path, from the
// outermost inwards ("a", "a/b" for "a/b/c").
func Parents(path string, yield func(dir string)) {
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			yield(path[:i])
		}
	}
}
