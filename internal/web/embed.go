// Package web embeds the built coupon studio frontend so a single
// binary can serve the template editor without a separate web server.
package web

import (
	"embed"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

// The frontend build drops its output into dist/. When the frontend has
// not been built, dist/ holds only a placeholder index.html.
//
//go:embed dist/*
var distFiles embed.FS

// GetFileSystem returns the embedded frontend rooted at dist/.
func GetFileSystem() (fs.FS, error) {
	return fs.Sub(distFiles, "dist")
}

// HasEmbeddedFiles reports whether a frontend build (an index.html under
// dist/) was embedded into this binary.
func HasEmbeddedFiles() bool {
	f, err := distFiles.Open("dist/index.html")
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// RegisterStaticRoutes mounts the embedded frontend on every path the
// API does not claim. Register the API routes first; this installs a
// catch-all. Unknown paths fall back to index.html so editor links like
// /editor/<session> resolve client-side.
func RegisterStaticRoutes(e *echo.Echo) error {
	staticFS, err := GetFileSystem()
	if err != nil {
		return err
	}
	fileServer := http.FileServer(http.FS(staticFS))

	e.GET("/*", func(c echo.Context) error {
		p := path.Clean(c.Request().URL.Path)
		if p == "." {
			p = "/"
		}

		f, err := staticFS.Open(strings.TrimPrefix(p, "/"))
		if err != nil {
			return serveIndex(c, staticFS)
		}
		stat, statErr := f.Stat()
		f.Close()
		if statErr != nil || stat.IsDir() {
			return serveIndex(c, staticFS)
		}

		fileServer.ServeHTTP(c.Response(), c.Request())
		return nil
	})

	return nil
}

func serveIndex(c echo.Context, staticFS fs.FS) error {
	f, err := staticFS.Open("index.html")
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "index.html not found")
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read index.html")
	}
	return c.HTMLBlob(http.StatusOK, content)
}
