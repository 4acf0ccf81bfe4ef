package server

import (
	"io/fs"
	"net/http"
	"path"
)

// SPAHandler serves the frontend's built assets and falls back to index.html
// for any extensionless path that doesn't match a file, so client-side routes
// survive a full page load. Missing paths with extensions return 404.
type SPAHandler struct {
	fileServer http.Handler
	filesystem fs.FS
}

// NewSPAHandler serves files from root, which may be an os.DirFS over the
// build directory in development or an embedded filesystem in production.
func NewSPAHandler(root fs.FS) *SPAHandler {
	return &SPAHandler{
		fileServer: http.FileServer(http.FS(root)),
		filesystem: root,
	}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	urlPath := r.URL.Path
	if urlPath == "/" {
		h.fileServer.ServeHTTP(w, r)
		return
	}

	if _, err := fs.Stat(h.filesystem, urlPath[1:]); err == nil {
		h.fileServer.ServeHTTP(w, r)
		return
	}

	// Paths with extensions (.css, .js, .png) are real file requests and
	// should 404 rather than come back as index.html with the wrong MIME type.
	if path.Ext(urlPath) != "" {
		http.NotFound(w, r)
		return
	}

	r.URL.Path = "/"
	h.fileServer.ServeHTTP(w, r)
}
