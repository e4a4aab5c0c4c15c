// Package web embeds the VibeSync page templates and static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:templates
var templatesFS embed.FS

//go:embed all:static
var staticFS embed.FS

// Templates returns the template tree rooted at templates/.
func Templates() fs.FS {
	return mustSub(templatesFS, "templates")
}

// Static returns the static asset tree rooted at static/.
func Static() fs.FS {
	return mustSub(staticFS, "static")
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
