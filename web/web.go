// Package web holds the browser front end served at the root path.
package web

import "embed"

// Content contains index.html.
//
//go:embed index.html
var Content embed.FS
