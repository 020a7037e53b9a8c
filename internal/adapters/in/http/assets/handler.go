// Package assets serves the platform frontend on the main domain.
package assets

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// Config tunes the asset handler.
type Config struct {
	// SPAFallback serves index.html for unknown extensionless paths so
	// client-side routes survive a reload.
	SPAFallback bool
	// ImmutablePrefix marks fingerprinted assets that may be cached forever.
	ImmutablePrefix string
}

// Handler serves static files from a filesystem.
type Handler struct {
	fsys   fs.FS
	files  http.Handler
	config Config
}

// New creates an asset handler over fsys.
func New(fsys fs.FS, cfg Config) *Handler {
	if cfg.ImmutablePrefix == "" {
		cfg.ImmutablePrefix = "/assets/"
	}
	return &Handler{
		fsys:   fsys,
		files:  http.FileServer(http.FS(fsys)),
		config: cfg,
	}
}

// FromDir serves dir, or DefaultFS when dir is empty or missing.
func FromDir(dir string, cfg Config) *Handler {
	if dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return New(os.DirFS(dir), cfg)
		}
	}
	return New(DefaultFS, cfg)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if strings.HasPrefix(r.URL.Path, h.config.ImmutablePrefix) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}

	if h.config.SPAFallback && h.shouldFallback(r.URL.Path) {
		r2 := r.Clone(r.Context())
		r2.URL.Path = "/"
		h.files.ServeHTTP(w, r2)
		return
	}

	h.files.ServeHTTP(w, r)
}

// shouldFallback reports whether p names no file and looks like a client
// route rather than a missing asset.
func (h *Handler) shouldFallback(p string) bool {
	if p == "/" || path.Ext(p) != "" {
		return false
	}
	name := strings.TrimPrefix(path.Clean(p), "/")
	_, err := fs.Stat(h.fsys, name)
	return errors.Is(err, fs.ErrNotExist)
}
