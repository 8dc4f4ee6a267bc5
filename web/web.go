// Package web serves the embedded recorder UI.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var static embed.FS

// Handler serves the single-page recorder frontend.
func Handler() http.Handler {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		// The static tree is compiled in; a missing subdirectory is a build
		// defect, not a runtime condition.
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
