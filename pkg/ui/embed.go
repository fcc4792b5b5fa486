// Package ui embeds the single-page download UI served at /.
package ui

import (
	_ "embed"
)

// IndexHTML is the download page. It calls POST /api/info to preview a URL
// and POST /api/download to fetch the file.
//
//go:embed index.html
var IndexHTML []byte
