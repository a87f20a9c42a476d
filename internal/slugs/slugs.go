// Package slugs derives node names and paths from file names.
package slugs

import (
	"path"
	"strings"

	goslug "github.com/gosimple/slug"
)

// Name converts a file or directory name to a node name. A trailing ".md"
// is dropped. Names gosimple/slug reduces to nothing fall back to a
// lower-cased, dash-joined form.
func Name(s string) string {
	s = strings.TrimSuffix(s, ".md")
	slugged := goslug.Make(s)
	if slugged == "" {
		slugged = strings.ToLower(strings.Join(strings.Fields(s), "-"))
	}
	return slugged
}

// Path slugifies every component of a slash-separated path and roots it.
//
//	"Projects/Apollo Launch.md" -> "/projects/apollo-launch"
func Path(p string) string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return "/"
	}
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = Name(part)
	}
	return "/" + strings.Join(parts, "/")
}
