package router

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SPA serves files from a static tree and answers every other GET/HEAD with
// the entry document so client-side routes survive a reload.
//
//	r.NotFound(router.SPA(cfg.StaticRoot, cfg.IndexFile, notFound).ServeHTTP)
//
// Dot-files, directories, Go sources and anything under a hidden path are
// never served. Requests with other methods go to fallback.
type SPAHandler struct {
	root     string
	index    string
	fallback http.Handler
	hidden   []string
}

// sourceExt lists extensions that belong to the server build, not the site.
var sourceExt = map[string]bool{".go": true, ".mod": true, ".sum": true}

// SPA builds the static/entry-document handler for root. index is relative
// to root.
func SPA(root, index string, fallback http.Handler) *SPAHandler {
	if root == "" {
		root = "."
	}
	if index == "" {
		index = "index.html"
	}
	return &SPAHandler{root: root, index: index, fallback: fallback}
}

// Hide refuses the given root-relative paths and everything below them.
// Requests for them receive the entry document like any unknown path.
func (s *SPAHandler) Hide(paths ...string) *SPAHandler {
	for _, p := range paths {
		clean := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(p)), "/")
		if clean != "" {
			s.hidden = append(s.hidden, clean)
		}
	}
	return s
}

func (s *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.fallback.ServeHTTP(w, r)
		return
	}

	if name, ok := s.resolve(r.URL.Path); ok {
		if s.serveFile(w, r, name) {
			return
		}
	}

	if !s.serveFile(w, r, filepath.Join(s.root, filepath.FromSlash(s.index))) {
		s.fallback.ServeHTTP(w, r)
	}
}

// resolve maps a URL path to a file under root, refusing hidden segments.
func (s *SPAHandler) resolve(urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	if clean == "/" {
		return "", false
	}
	rel := clean[1:]
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return "", false
		}
	}
	if sourceExt[strings.ToLower(path.Ext(rel))] {
		return "", false
	}
	for _, h := range s.hidden {
		if strings.EqualFold(rel, h) || strings.HasPrefix(strings.ToLower(rel), strings.ToLower(h)+"/") {
			return "", false
		}
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), true
}

// serveFile writes name if it is a regular file and reports whether it did.
func (s *SPAHandler) serveFile(w http.ResponseWriter, r *http.Request, name string) bool {
	f, err := os.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}

// CheckIndex reports whether the entry document exists under root.
func CheckIndex(root, index string) error {
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(index)))
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return &fs.PathError{Op: "stat", Path: index, Err: fs.ErrInvalid}
	}
	return nil
}
