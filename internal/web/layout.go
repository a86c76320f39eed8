package web

import (
	"context"
	"io"
	"sort"

	"github.com/a-h/templ"
)

const appTitle = "Baby Name Guessing Game"

type pageOptions struct {
	title   string
	attrs   map[string]string
	scripts []string
}

func layout(opts pageOptions, body func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		title := appTitle
		if opts.title != "" {
			title = opts.title + " · " + appTitle
		}
		h.raw(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>`)
		h.text(title)
		h.raw(`</title>
    <link rel="stylesheet" href="`, esc(assetPath("/static/styles.css")), `"/>
  </head>
  <body`)
		for _, key := range sortedKeys(opts.attrs) {
			h.attr(key, opts.attrs[key])
		}
		h.raw(`>
    <main class="shell">
`)
		body(h)
		h.raw(`    </main>
`)
		for _, src := range opts.scripts {
			h.raw(`    <script src="`, esc(assetPath(src)), `"></script>
`)
		}
		h.raw(`  </body>
</html>
`)
		return h.err
	})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func flash(h *htmlWriter, message string) {
	if message == "" {
		return
	}
	h.raw(`      <p class="flash">`)
	h.text(message)
	h.raw("</p>\n")
}

func errorBox(h *htmlWriter, message string) {
	if message == "" {
		return
	}
	h.raw(`      <p class="error" role="alert">`)
	h.text(message)
	h.raw("</p>\n")
}

// ErrorPage renders a standalone failure message with a way back.
func ErrorPage(heading, message, backHref, backLabel string) templ.Component {
	return layout(pageOptions{title: heading}, func(h *htmlWriter) {
		h.raw(`      <section class="panel center">
        <h1>`)
		h.text(heading)
		h.raw("</h1>\n        <p>")
		h.text(message)
		h.raw(`</p>
        <a class="button secondary"`)
		h.attr("href", backHref)
		h.raw(">")
		h.text(backLabel)
		h.raw("</a>\n      </section>\n")
	})
}
