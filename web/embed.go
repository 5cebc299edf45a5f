// Package web embeds hubd's one-click provisioning console. The page is
// compiled into the binary so the daemon ships as a single file.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var staticFS embed.FS

// Handler serves the embedded console at the root path.
func Handler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The static directory is part of the binary; a missing entry is
		// a build defect, not a runtime condition.
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
