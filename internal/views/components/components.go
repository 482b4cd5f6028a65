// Package components holds small reusable view fragments.
package components

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"saponaria/internal/reconcile"
)

// SidebarLink is one navigation entry.
type SidebarLink struct {
	Label   string
	Path    string
	Section string
}

// SidebarData drives the navigation sidebar.
type SidebarData struct {
	Active   string
	UserName string
	Features []SidebarLink
}

// DefaultLinks are the workspace sections every user can reach.
func DefaultLinks() []SidebarLink {
	return []SidebarLink{
		{Label: "Workbench", Path: "/app", Section: "workbench"},
		{Label: "Recipes", Path: "/app/recipes", Section: "recipes"},
		{Label: "Import", Path: "/app/tools", Section: "tools"},
	}
}

func linkState(section, active string) string {
	if section == active {
		return "active"
	}
	return "inactive"
}

// Sidebar renders the navigation column.
func Sidebar(data SidebarData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := NewMarkup(ctx, w)
		m.Raw(`<nav class="sidebar">`)
		if data.UserName != "" {
			m.Printf(`<p class="sidebar-user">%s</p>`, data.UserName)
		}
		m.Raw(`<ul>`)
		for _, link := range data.Features {
			m.Printf(`<li><a href="%s" hx-get="%s" hx-target="#main" hx-push-url="true" data-nav-section="%s" data-state="%s">%s</a></li>`,
				link.Path, link.Path, link.Section, linkState(link.Section, data.Active), link.Label)
		}
		m.Raw(`</ul><form method="post" action="/logout"><button type="submit">Sign out</button></form></nav>`)
		return m.Err()
	})
}

// StatCard renders a labelled figure with an optional delta and caption.
func StatCard(label, value, delta, caption string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := NewMarkup(ctx, w)
		m.Printf(`<div class="stat-card"><span class="stat-label">%s</span><strong class="stat-value">%s</strong>`, label, value)
		if delta != "" {
			m.Printf(`<span class="stat-delta">%s</span>`, delta)
		}
		if caption != "" {
			m.Printf(`<small class="stat-caption">%s</small>`, caption)
		}
		m.Raw(`</div>`)
		return m.Err()
	})
}

// Warnings renders reconciliation warnings. An empty list renders an empty
// container so a swap clears stale messages.
func Warnings(id string, warnings []reconcile.Warning) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := NewMarkup(ctx, w)
		m.Printf(`<div id="%s" class="warnings" role="status">`, id)
		for _, warning := range warnings {
			m.Printf(`<p class="warning" data-code="%s">%s</p>`, string(warning.Code), warning.Message)
		}
		m.Raw(`</div>`)
		return m.Err()
	})
}

// Notice renders a dismissible banner. Nothing is rendered for an empty
// message.
func Notice(message, dismissPath string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if message == "" {
			return nil
		}
		m := NewMarkup(ctx, w)
		m.Printf(`<div class="notice" role="alert"><span>%s</span>`, message)
		if dismissPath != "" {
			m.Printf(`<button type="button" hx-post="%s" hx-target="#main">Dismiss</button>`, dismissPath)
		}
		m.Raw(`</div>`)
		return m.Err()
	})
}

// Message renders a success or error line, or nothing when both are empty.
func Message(success, failure string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := NewMarkup(ctx, w)
		if failure != "" {
			m.Printf(`<p class="message error">%s</p>`, failure)
		} else if success != "" {
			m.Printf(`<p class="message success">%s</p>`, success)
		}
		return m.Err()
	})
}
