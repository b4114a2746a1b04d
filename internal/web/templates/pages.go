// Package templates renders the server-side HTML pages: the link button
// page, the get-link interstitial and error fragments.
package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
)

// ButtonLink is one button rendered on a link page.
type ButtonLink struct {
	Name string
	URL  string
}

const pageStyle = `body{font-family:system-ui,sans-serif;background:#f4f5f7;margin:0;padding:2rem 1rem}` +
	`.wrap{max-width:28rem;margin:0 auto;text-align:center}` +
	`.btn{display:block;margin:.75rem 0;padding:.9rem 1rem;border-radius:.5rem;background:#2563eb;color:#fff;text-decoration:none;font-weight:600}` +
	`.alert{padding:1rem;border-radius:.5rem;background:#fee2e2;color:#991b1b;text-align:left}` +
	`.code{font-size:.8rem;opacity:.7}`

// layout wraps body in the shared page shell.
func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html lang="id"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title><style>%s</style></head><body><main class="wrap">`,
			templ.EscapeString(title), pageStyle); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// ButtonPage lists the buttons published under a link id. Each button goes
// through the get-link interstitial.
func ButtonPage(id string, buttons []ButtonLink) templ.Component {
	return layout("Links", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<h1>Links</h1>`)
		for _, btn := range buttons {
			href := "/getlink?url=" + templ.EscapeString(url.QueryEscape(btn.URL))
			fmt.Fprintf(&b, `<a class="btn" href="%s">%s</a>`, href, templ.EscapeString(btn.Name))
		}
		fmt.Fprintf(&b, `<p class="code">%s</p>`, templ.EscapeString(id))
		_, err := io.WriteString(w, b.String())
		return err
	}))
}

// GetLink is the interstitial page with a single button to target.
func GetLink(target string) templ.Component {
	return layout("Continue", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<h1>Your link is ready</h1><a class="btn" href="%s" rel="noopener noreferrer">Get Link</a>`,
			templ.EscapeString(string(templ.URL(target))))
		return err
	}))
}

// ErrorPage renders a full page around an error alert.
func ErrorPage(message, action, code string) templ.Component {
	return layout("Error", ErrorAlert(message, action, code))
}

// ErrorAlert is the error fragment shared by pages and partial responses.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert" role="alert"><strong>`)
		b.WriteString(templ.EscapeString(message))
		b.WriteString(`</strong>`)
		if action != "" {
			b.WriteString(`<p>` + templ.EscapeString(action) + `</p>`)
		}
		if code != "" {
			b.WriteString(`<p class="code">Code: ` + templ.EscapeString(code) + `</p>`)
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
