// Package web embeds the browser client served by the API server.
//
// out/ holds a static page that draws the marker field with three.js and
// talks to the server over /api/v1/ws. instructions.txt is the text of the
// help overlay.
package web

import (
	"embed"
	"io/fs"
	"log"
)

//go:embed all:out
var dist embed.FS

//go:embed instructions.txt
var instructions string

// DistFS returns a filesystem rooted at the embedded out/ directory.
// This is ready to use with http.FileServerFS or http.FS.
func DistFS() fs.FS {
	sub, err := fs.Sub(dist, "out")
	if err != nil {
		log.Fatalf("web.DistFS: %v", err)
	}
	return sub
}

// Instructions returns the help overlay text.
func Instructions() string {
	return instructions
}
