package web

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
)

//go:embed static/*
var static embed.FS

// Assets serves the embedded stylesheet and scripts rooted at /static.
func Assets() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func itoa(value int) string {
	return strconv.Itoa(value)
}

func pageURL(base string, page, perPage int) string {
	if strings.Contains(base, "?") {
		return base + "&page=" + itoa(page) + "&per_page=" + itoa(perPage)
	}
	return base + "?page=" + itoa(page) + "&per_page=" + itoa(perPage)
}

// assetPath appends a content hash of the embedded file so browsers refetch changed assets.
func assetPath(path string) string {
	if path == "" || !strings.HasPrefix(path, "/static/") {
		return path
	}
	data, err := static.ReadFile(strings.TrimPrefix(path, "/"))
	if err != nil {
		return path
	}
	sum := sha256.Sum256(data)
	return appendAssetVersion(path, hex.EncodeToString(sum[:8]))
}

func appendAssetVersion(path string, hash string) string {
	if hash == "" {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&v=" + hash
	}
	return path + "?v=" + hash
}

func FormatDate(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Format("Jan 2, 2006")
}

func esc(value string) string {
	return templ.EscapeString(value)
}

type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(parts ...string) {
	for _, part := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, part)
	}
}

func (h *htmlWriter) text(value string) {
	h.raw(esc(value))
}

func (h *htmlWriter) attr(name, value string) {
	h.raw(" ", name, `="`, esc(value), `"`)
}
