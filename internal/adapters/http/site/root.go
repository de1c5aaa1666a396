// Package site serves the written handout sheets and the landing redirect.
package site

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Prefix is where the sheets directory is mounted.
const Prefix = "/sheets/"

// DocsPath is where the landing page redirects.
const DocsPath = "/api-docs"

// Register attaches the sheets file server and the root redirect to mux.
// An empty dir mounts only the redirect.
func Register(_ context.Context, mux *http.ServeMux, dir string) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.Handle("GET /{$}", http.RedirectHandler(DocsPath, http.StatusFound))
	if dir == "" {
		return
	}
	mux.Handle("GET "+Prefix, http.StripPrefix(Prefix, NewSheetsHandler(dir)))
}

// SheetsHandler serves the CSV sheets below a directory. Directories are
// listed; other file types are not served.
type SheetsHandler struct {
	files http.Handler
	dir   string
}

// NewSheetsHandler creates a handler rooted at dir.
func NewSheetsHandler(dir string) *SheetsHandler {
	return &SheetsHandler{files: http.FileServer(http.Dir(dir)), dir: dir}
}

// ServeHTTP implements http.Handler.
func (h *SheetsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	if name != "/" && !strings.HasSuffix(name, ".csv") {
		if info, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(name))); err != nil || !info.IsDir() {
			http.NotFound(w, r)
			return
		}
	}
	if strings.HasSuffix(name, ".csv") {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	}
	h.files.ServeHTTP(w, r)
}
