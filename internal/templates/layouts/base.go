package layouts

import (
	"context"
	"html"
	"io"

	"github.com/a-h/templ"
)

const baseStyles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f3f4f6;color:#111827}
main{max-width:960px;margin:0 auto;padding:24px}
.board{display:grid;grid-template-columns:repeat(3,1fr);gap:16px}
.group{background:#fff;border-radius:8px;padding:12px;min-height:120px;border-top:4px solid var(--reserve)}
.group[data-group=team_a]{border-top-color:var(--team-a)}
.group[data-group=team_b]{border-top-color:var(--team-b)}
.group h2{margin:-12px -12px 8px;padding:8px 12px;font-size:1rem;background:var(--reserve);color:var(--reserve-text)}
.group[data-group=team_a] h2{background:var(--team-a);color:var(--team-a-text)}
.group[data-group=team_b] h2{background:var(--team-b);color:var(--team-b-text)}
.player{padding:6px 8px;margin:4px 0;border-radius:4px;background:#f9fafb;cursor:grab}
.player.admin{font-weight:600}
.player.pending{outline:2px dashed var(--accent)}
#toasts{position:fixed;bottom:16px;right:16px}
.toast{background:#111827;color:#fff;padding:8px 12px;border-radius:6px;margin-top:8px}
`

// Base wraps content in the HTML shell with htmx loaded.
func Base(title string, content templ.Component, theme *Theme) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html><html lang="en"><head><meta charset="utf-8">`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<meta name="viewport" content="width=device-width, initial-scale=1">`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<title>`+html.EscapeString(title)+` | PitchMatch</title>`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<script src="https://unpkg.com/htmx.org@1.9.12"></script>`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<style>`+getThemeCssVars(theme)+baseStyles+`</style></head><body><main>`); err != nil {
			return err
		}
		if content != nil {
			if err := content.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</main><div id="toasts"></div></body></html>`)
		return err
	})
}
