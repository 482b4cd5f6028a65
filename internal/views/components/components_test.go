package components

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"saponaria/internal/reconcile"
)

func TestLinkState(t *testing.T) {
	if got := linkState("recipes", "recipes"); got != "active" {
		t.Fatalf("expected active state when sections match, got %q", got)
	}
	if got := linkState("tools", "recipes"); got != "inactive" {
		t.Fatalf("expected inactive state when sections differ, got %q", got)
	}
}

func TestStatCardRendersValues(t *testing.T) {
	var buf bytes.Buffer
	err := StatCard("Lye", "142.50 g", "+2.00", "NaOH at 5% superfat").Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("render stat card: %v", err)
	}
	output := buf.String()
	for _, token := range []string{"Lye", "142.50 g", "+2.00", "NaOH at 5% superfat"} {
		if !strings.Contains(output, token) {
			t.Fatalf("expected output to contain %q: %s", token, output)
		}
	}
}

func TestSidebarRendersActiveSection(t *testing.T) {
	data := SidebarData{
		Active: "recipes",
		Features: []SidebarLink{{
			Label:   "Recipes",
			Path:    "/app/recipes",
			Section: "recipes",
		}},
	}
	var buf bytes.Buffer
	if err := Sidebar(data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render sidebar: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "data-state=\"active\"") {
		t.Fatalf("expected active data-state attribute in sidebar output: %s", out)
	}
	if !strings.Contains(out, "data-nav-section=\"recipes\"") {
		t.Fatalf("expected data-nav-section attribute for active link: %s", out)
	}
}

func TestWarningsEscapeMessages(t *testing.T) {
	var buf bytes.Buffer
	warnings := []reconcile.Warning{{Code: reconcile.WarningOverTarget, Message: "Weights exceed <target>"}}
	if err := Warnings("oil-warnings", warnings).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render warnings: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<target>") {
		t.Fatalf("expected message to be escaped: %s", out)
	}
	if !strings.Contains(out, `data-code="over_target"`) {
		t.Fatalf("expected warning code attribute: %s", out)
	}
}

func TestWarningsRenderEmptyContainer(t *testing.T) {
	var buf bytes.Buffer
	if err := Warnings("oil-warnings", nil).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render warnings: %v", err)
	}
	if got := buf.String(); got != `<div id="oil-warnings" class="warnings" role="status"></div>` {
		t.Fatalf("unexpected empty warnings markup: %s", got)
	}
}

func TestNoticeOmittedWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Notice("", "/dismiss").Render(context.Background(), &buf); err != nil {
		t.Fatalf("render notice: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no markup for empty notice, got %s", buf.String())
	}

	buf.Reset()
	if err := Notice("Service unavailable", "/dismiss").Render(context.Background(), &buf); err != nil {
		t.Fatalf("render notice: %v", err)
	}
	if !strings.Contains(buf.String(), `hx-post="/dismiss"`) {
		t.Fatalf("expected dismiss action: %s", buf.String())
	}
}

type shapeName string

type label struct{ text string }

func (l label) String() string { return l.text }

func TestMarkupPrintfEscapesNamedStrings(t *testing.T) {
	var buf bytes.Buffer
	m := NewMarkup(context.Background(), &buf)
	m.Printf(`<td>%s</td><td>%s</td><td>%s</td><td>%d</td>`,
		shapeName(`<script>alert(1)</script>`),
		label{text: `a & b`},
		Trusted(`<em>ok</em>`),
		3,
	)
	if err := m.Err(); err != nil {
		t.Fatalf("printf: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>") {
		t.Fatalf("expected named string type to be escaped: %s", out)
	}
	for _, token := range []string{"&lt;script&gt;", "a &amp; b", "<em>ok</em>", "<td>3</td>"} {
		if !strings.Contains(out, token) {
			t.Fatalf("expected output to contain %q: %s", token, out)
		}
	}
}
