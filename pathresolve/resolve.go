// Package pathresolve turns an untrusted, percent-encoded request URL into
// a canonicalized absolute filesystem path that is provably contained
// within a configured document root, selecting an index document for
// directories and signalling when an external redirect is required
// instead of a directly-servable path.
package pathresolve

import (
	"errors"
	"os"
	"strings"

	"github.com/jow-/uhttpgo/urlcodec"
)

// ErrNotFound is returned whenever the URL cannot be resolved to anything
// servable: a decode failure, no prefix canonicalizes, or the result would
// escape the document root. The caller maps this to an HTTP 404, same as
// the original implementation's "return NULL means 404" contract — even
// though a decode failure is arguably a 400, returning a uniform not-found
// here avoids leaking which failure mode occurred.
var ErrNotFound = errors.New("pathresolve: not found")

// PathInfo is the result of a successful resolution.
type PathInfo struct {
	// Root is the configured document-root prefix that bounds Phys.
	Root string

	// Phys is the canonical absolute filesystem path of the resolved
	// object: a regular file, the selected index file, or the directory
	// itself when no index file was found.
	Phys string

	// Name is the portion of Phys following Root: the externally
	// visible request path. It starts with "/", except that it is empty
	// when Phys is Root itself.
	Name string

	// Info is the trailing "path info" captured when a prefix of the
	// URL resolved to a regular file and further segments remained.
	// Empty when there is none. When non-empty it starts with "/".
	Info string

	// Query is the raw (never percent-decoded) query string, without
	// the leading '?'. Empty when the URL had none.
	Query string

	// Redirected is set when the request must be answered with a 302
	// to the same path plus a trailing slash, instead of being served.
	// RedirectLocation holds the Location header value to send.
	Redirected       bool
	RedirectLocation string

	// Stat is the cached metadata of the resolved object (the index
	// file's metadata, if one was substituted for a bare directory).
	Stat os.FileInfo
}

// Config bundles the inputs to Resolve that come from server
// configuration rather than from the request itself.
type Config struct {
	// Root is the absolute document-root directory. It must not have a
	// trailing slash.
	Root string

	// Mode selects lexical or physical canonicalization.
	Mode Mode

	// IndexFiles is the ordered list of index filenames tried, in
	// order, when a directory is requested. First existing regular
	// file wins.
	IndexFiles []string
}

// Resolve implements the six-step pipeline from the path resolver
// specification: split off the query string, percent-decode the path,
// find the longest canonicalizing prefix, enforce docroot containment,
// stat the result, and either select an index file or signal a redirect.
func Resolve(cfg Config, rawURL string) (*PathInfo, error) {
	rawPath, query := splitQuery(rawURL)

	decoded, err := urlcodec.DecodeString(rawPath)
	if err != nil {
		return nil, ErrNotFound
	}

	hadTrailingSlash := strings.HasSuffix(decoded, "/")

	buffer := cfg.Root + decoded
	phys, pathInfo, err := findPrefix(buffer, cfg.Mode)
	if err != nil {
		return nil, ErrNotFound
	}

	if !withinRoot(phys, cfg.Root) {
		return nil, ErrNotFound
	}

	fi, err := os.Stat(phys)
	if err != nil {
		return nil, ErrNotFound
	}

	pi := &PathInfo{
		Root:  cfg.Root,
		Query: query,
	}

	switch {
	case fi.Mode().IsRegular():
		pi.Phys = phys
		pi.Name = phys[len(cfg.Root):]
		pi.Info = pathInfo
		pi.Stat = fi

	case fi.IsDir() && pathInfo == "":
		if !hadTrailingSlash {
			name := phys[len(cfg.Root):]
			loc := name + "/"
			if query != "" {
				loc += "?" + query
			}
			pi.Redirected = true
			pi.RedirectLocation = loc
			return pi, nil
		}

		indexPhys, indexStat, ok := selectIndex(phys, cfg.IndexFiles)
		if ok {
			phys, fi = indexPhys, indexStat
		}
		pi.Phys = phys
		pi.Name = phys[len(cfg.Root):]
		pi.Stat = fi

	default:
		// Neither a regular file nor a bare directory (e.g. a device
		// node, or a directory reached with leftover path info): not
		// servable.
		return nil, ErrNotFound
	}

	return pi, nil
}

// splitQuery separates rawURL into (path, query) at the first '?'. The
// query string is never percent-decoded; an empty query ("/x?") yields "".
func splitQuery(rawURL string) (path, query string) {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i], rawURL[i+1:]
	}
	return rawURL, ""
}

// findPrefix finds the longest prefix of buffer, cut at '/' boundaries
// from right to left, that canonicalizes successfully. It returns the
// canonicalized path and the unconsumed suffix (which starts with '/' when
// non-empty).
func findPrefix(buffer string, mode Mode) (phys, pathInfo string, err error) {
	for i := len(buffer); i >= 0; i-- {
		if i < len(buffer) && buffer[i] != '/' {
			continue
		}
		prefix := buffer
		if i < len(buffer) {
			prefix = buffer[:i+1]
		}
		if canon, cerr := canonicalize(mode, prefix); cerr == nil {
			return canon, buffer[i:], nil
		}
	}
	return "", "", ErrNotFound
}

// withinRoot implements the containment rule: phys must start with root,
// and the next byte must be end-of-string or '/'.
func withinRoot(phys, root string) bool {
	if !strings.HasPrefix(phys, root) {
		return false
	}
	rest := phys[len(root):]
	return rest == "" || rest[0] == '/'
}

// selectIndex tries each index filename in order against dirPhys and
// returns the first one that exists as a regular file.
func selectIndex(dirPhys string, indexFiles []string) (phys string, fi os.FileInfo, ok bool) {
	base := strings.TrimSuffix(dirPhys, "/")
	for _, name := range indexFiles {
		candidate := base + "/" + name
		if st, err := os.Stat(candidate); err == nil && st.Mode().IsRegular() {
			return candidate, st, true
		}
	}
	return "", nil, false
}
