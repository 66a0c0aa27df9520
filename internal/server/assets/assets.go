// Package assets embeds the app shell served to browsers and pre-cached by
// the offline worker.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed static
var static embed.FS

// FS is rooted at the app shell: index.html, manifest.webmanifest, sw.js
// and icons/.
var FS fs.FS

func init() {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	FS = sub
}

// contentTypes covers the extensions the shell ships that mime lookups
// get wrong or miss.
var contentTypes = map[string]string{
	".html":        "text/html; charset=utf-8",
	".js":          "application/javascript",
	".webmanifest": "application/manifest+json",
	".png":         "image/png",
}

// ContentType returns the media type for an asset path by extension.
func ContentType(ext string) string {
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
