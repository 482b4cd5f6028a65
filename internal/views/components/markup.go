package components

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/a-h/templ"
)

// Trusted marks a Printf argument that is already safe markup.
type Trusted string

// Markup writes HTML fragments and keeps the first write error.
type Markup struct {
	ctx context.Context
	w   io.Writer
	err error
}

// NewMarkup wraps w for rendering inside a templ.ComponentFunc.
func NewMarkup(ctx context.Context, w io.Writer) *Markup {
	return &Markup{ctx: ctx, w: w}
}

// Raw writes trusted markup as is.
func (m *Markup) Raw(s string) {
	if m.err != nil {
		return
	}
	_, m.err = io.WriteString(m.w, s)
}

// Printf formats trusted markup. Trusted arguments are written as is. Any
// other argument that renders as text, including named string types,
// Stringers and errors, is HTML-escaped.
func (m *Markup) Printf(format string, args ...any) {
	escaped := make([]any, len(args))
	for i, arg := range args {
		escaped[i] = escapeArg(arg)
	}
	m.Raw(fmt.Sprintf(format, escaped...))
}

func escapeArg(arg any) any {
	switch v := arg.(type) {
	case Trusted:
		return string(v)
	case string:
		return templ.EscapeString(v)
	case error:
		return templ.EscapeString(v.Error())
	case fmt.Stringer:
		return templ.EscapeString(v.String())
	}
	if rv := reflect.ValueOf(arg); rv.IsValid() && rv.Kind() == reflect.String {
		return templ.EscapeString(rv.String())
	}
	return arg
}

// Text writes escaped text.
func (m *Markup) Text(s string) {
	m.Raw(templ.EscapeString(s))
}

// Render writes a nested component.
func (m *Markup) Render(c templ.Component) {
	if m.err != nil || c == nil {
		return
	}
	m.err = c.Render(m.ctx, m.w)
}

// Err reports the first error encountered.
func (m *Markup) Err() error { return m.err }
