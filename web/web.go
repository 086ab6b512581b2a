// Package web embeds the server-rendered templates.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS
