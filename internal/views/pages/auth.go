package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"saponaria/internal/units"
	"saponaria/internal/views/components"
	"saponaria/internal/views/layout"
)

// Login renders the full sign-in page.
func Login(message, email string) templ.Component {
	return layout.Layout("Sign in · Saponaria", nil, LoginPartial(message, email), false)
}

// LoginPartial renders the sign-in form alone for HTMX swaps.
func LoginPartial(message, email string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := components.NewMarkup(ctx, w)
		m.Raw(`<section id="auth" class="auth-card"><h1>Sign in</h1>`)
		m.Render(components.Message("", message))
		m.Raw(`<form method="post" action="/login" hx-post="/login" hx-target="#auth" hx-swap="outerHTML">`)
		m.Printf(`<label>Email <input type="email" name="email" value="%s" required autocomplete="email"></label>`, email)
		m.Raw(`<label>Password <input type="password" name="password" required autocomplete="current-password"></label>`)
		m.Raw(`<button type="submit">Sign in</button></form>`)
		m.Raw(`<p>No account yet? <a href="/signup" hx-get="/signup" hx-target="#auth" hx-swap="outerHTML" hx-push-url="true">Create one</a></p></section>`)
		return m.Err()
	})
}

// Signup renders the full account creation page.
func Signup(message, name, email, unit string) templ.Component {
	return layout.Layout("Create account · Saponaria", nil, SignupPartial(message, name, email, unit), false)
}

// SignupPartial renders the account creation form alone for HTMX swaps.
func SignupPartial(message, name, email, unit string) templ.Component {
	if unit == "" {
		unit = string(units.Gram)
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := components.NewMarkup(ctx, w)
		m.Raw(`<section id="auth" class="auth-card"><h1>Create your account</h1>`)
		m.Render(components.Message("", message))
		m.Raw(`<form method="post" action="/signup" hx-post="/signup" hx-target="#auth" hx-swap="outerHTML">`)
		m.Printf(`<label>Name <input type="text" name="name" value="%s" autocomplete="name"></label>`, name)
		m.Printf(`<label>Email <input type="email" name="email" value="%s" required autocomplete="email"></label>`, email)
		m.Raw(`<label>Password <input type="password" name="password" required minlength="8" autocomplete="new-password"></label>`)
		m.Raw(`<label>Confirm password <input type="password" name="confirm_password" required minlength="8" autocomplete="new-password"></label>`)
		m.Raw(`<label>Preferred unit <select name="unit">`)
		for _, u := range UnitOptions() {
			m.Printf("%s", option(string(u), string(u), unit))
		}
		m.Raw(`</select></label>`)
		m.Raw(`<button type="submit">Create account</button></form>`)
		m.Raw(`<p>Already registered? <a href="/login" hx-get="/login" hx-target="#auth" hx-swap="outerHTML" hx-push-url="true">Sign in</a></p></section>`)
		return m.Err()
	})
}
