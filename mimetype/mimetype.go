// Package mimetype maps a filename to a content-type string using a
// compile-time static extension table, the way a resource-constrained
// embedded HTTP server does it rather than consulting the host's mime.types
// database.
package mimetype

// DefaultType is returned for any filename whose extension is not present
// in the table.
const DefaultType = "application/octet-stream"

// entry pairs a lowercase extension (without the leading dot) with its
// content-type.
type entry struct {
	ext  string
	mime string
}

// table is scanned in order; the first match wins. Kept small and
// unsorted, matching the original uhttpd mimetypes table rather than a
// generated list.
var table = []entry{
	{"html", "text/html"},
	{"htm", "text/html"},
	{"css", "text/css"},
	{"txt", "text/plain"},
	{"js", "application/javascript"},
	{"mjs", "application/javascript"},
	{"json", "application/json"},
	{"xml", "application/xml"},
	{"png", "image/png"},
	{"gif", "image/gif"},
	{"jpeg", "image/jpeg"},
	{"jpg", "image/jpeg"},
	{"svg", "image/svg+xml"},
	{"ico", "image/x-icon"},
	{"webp", "image/webp"},
	{"pdf", "application/pdf"},
	{"zip", "application/zip"},
	{"gz", "application/gzip"},
	{"tar", "application/x-tar"},
	{"woff", "font/woff"},
	{"woff2", "font/woff2"},
	{"ttf", "font/ttf"},
	{"otf", "font/otf"},
	{"mp4", "video/mp4"},
	{"webm", "video/webm"},
	{"mp3", "audio/mpeg"},
	{"wav", "audio/wav"},
	{"wasm", "application/wasm"},
	{"csv", "text/csv"},
	{"md", "text/markdown"},
}

// Lookup returns the content-type for path, scanning from the right for a
// '.' before a '/' boundary is reached (so "a.b/c" has no extension, and
// "a/b.c" has extension "c"). The comparison is case-insensitive.
// DefaultType is returned when no extension matches, including when the
// filename has no extension at all.
func Lookup(path string) string {
	ext, ok := extension(path)
	if !ok {
		return DefaultType
	}
	for _, e := range table {
		if equalFold(e.ext, ext) {
			return e.mime
		}
	}
	return DefaultType
}

// extension scans path from right to left, exactly like the C
// implementation: stop (no extension) on '/', succeed on '.'.
func extension(path string) (string, bool) {
	for i := len(path) - 1; i >= 0; i-- {
		switch path[i] {
		case '.':
			return path[i+1:], true
		case '/':
			return "", false
		}
	}
	return "", false
}

// equalFold is an ASCII case-insensitive comparison; extensions in the
// table and in real filenames are always ASCII.
func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
