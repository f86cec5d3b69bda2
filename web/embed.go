package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed index.html app.js styles.css
var content embed.FS

// Files exposes the embedded static assets.
func Files() fs.FS {
	return content
}

// IndexTemplate parses the embedded task page.
func IndexTemplate() (*template.Template, error) {
	return template.ParseFS(content, "index.html")
}
