// Package layout renders the document shell shared by every page.
package layout

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"saponaria/internal/views/components"
)

const htmxScript = "https://unpkg.com/htmx.org@1.9.12"

func bodyWrapperClass(showSidebar bool) string {
	if showSidebar {
		return "shell shell-with-sidebar"
	}
	return "shell"
}

func mainClass(showSidebar bool) string {
	if showSidebar {
		return "main main-padded"
	}
	return "main main-centered"
}

// Layout wraps content in the HTML document. The sidebar is only rendered
// when showSidebar is set.
func Layout(title string, sidebar, content templ.Component, showSidebar bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := components.NewMarkup(ctx, w)
		m.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		m.Printf(`<title>%s</title>`, title)
		m.Printf(`<link rel="stylesheet" href="/assets/app.css"><script src="%s" defer></script></head>`, htmxScript)
		m.Printf(`<body><div class="%s">`, bodyWrapperClass(showSidebar))
		if showSidebar {
			m.Render(sidebar)
		}
		m.Printf(`<main id="main" class="%s">`, mainClass(showSidebar))
		m.Render(content)
		m.Raw(`</main></div></body></html>`)
		return m.Err()
	})
}
