// Package views holds the embedded HTML templates for the rendered pages.
package views

import (
	"embed"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed *.html
var files embed.FS

// Engine returns a Fiber views engine backed by the embedded templates.
func Engine() *html.Engine {
	return html.NewFileSystem(http.FS(files), ".html")
}
