package response

import (
	"fmt"
	"html"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jow-/uhttpgo/mimetype"
	"github.com/jow-/uhttpgo/pathresolve"
	"github.com/jow-/uhttpgo/precond"
	"github.com/jow-/uhttpgo/transport"
)

// ServeDirectory answers req with either a generated listing of pi, or a
// 403 when listings are disabled. It never inspects preconditions: a
// directory listing has no stable entity tag of its own. The listing body
// is always chunked, whatever the request's HTTP version (ServeFile, by
// contrast, chunks only HTTP/1.1 bodies); a HEAD request gets the headers
// only.
func (e *Emitter) ServeDirectory(req Request, pi *pathresolve.PathInfo) error {
	if !e.allowListing {
		return e.WriteError(req, 403, "Forbidden")
	}

	entries, err := os.ReadDir(pi.Phys)
	if err != nil {
		return e.WriteError(req, 403, "Forbidden")
	}

	headers := []string{
		headerLine("Content-Type", "text/html"),
		headerLine("Transfer-Encoding", "chunked"),
		headerLine("Connection", "close"),
	}
	if err := e.conn.Send(buildHeaderBlock(req.Version.String(), 200, "OK", e.withExtra(headers))); err != nil {
		return err
	}
	if req.IsHead() {
		return nil
	}

	cw := transport.NewChunkWriter(e.conn)
	if err := cw.WriteChunk([]byte(renderListing(pi.Name, entries))); err != nil {
		return err
	}
	return cw.WriteChunk(nil)
}

// listingEntry is one row of a rendered directory listing.
type listingEntry struct {
	name  string
	isDir bool
	mtime time.Time
	size  int64
	kind  string
}

// renderListing builds the full listing page for a directory whose
// externally-visible path is name. Dotfiles are hidden; directories are
// required to be world-executable (searchable) and regular files
// world-readable, to avoid advertising objects the server itself could
// not have served. Subdirectories are listed before files, each group
// sorted alphabetically.
func renderListing(name string, dirEntries []os.DirEntry) string {
	var dirs, files []listingEntry
	for _, de := range dirEntries {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		if de.IsDir() {
			if info.Mode().Perm()&0o001 == 0 {
				continue
			}
			dirs = append(dirs, listingEntry{
				name:  de.Name(),
				isDir: true,
				mtime: info.ModTime(),
				size:  info.Size(),
				kind:  "directory",
			})
			continue
		}
		if !info.Mode().IsRegular() || info.Mode().Perm()&0o004 == 0 {
			continue
		}
		files = append(files, listingEntry{
			name:  de.Name(),
			mtime: info.ModTime(),
			size:  info.Size(),
			kind:  mimetype.Lookup(de.Name()),
		})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].name < dirs[j].name })
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })

	escName := html.EscapeString(name)

	var b strings.Builder
	b.WriteString("<html><head><title>Index of ")
	b.WriteString(escName)
	b.WriteString("</title></head><body><h1>Index of ")
	b.WriteString(escName)
	b.WriteString("</h1><hr /><ol>")

	for _, entries := range [][]listingEntry{dirs, files} {
		for _, ent := range entries {
			href := html.EscapeString(ent.name)
			label := html.EscapeString(ent.name)
			if ent.isDir {
				href += "/"
				label += "/"
			}
			fmt.Fprintf(&b,
				`<li><strong><a href="%s">%s</a></strong><br /><small>modified: %s<br />%s - %.02f kbyte<br /><br /></small></li>`,
				href, label, precond.FormatDate(ent.mtime), ent.kind, float64(ent.size)/1024.0)
		}
	}

	b.WriteString("</ol><hr /></body></html>")
	return b.String()
}
