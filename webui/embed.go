// Package webui exposes the embedded hosted document.
// It MUST live at the module root to embed the sibling "web/" directory.
// internal/server/embed.go imports this package to serve it.
package webui

import "embed"

// FS is the embedded web directory tree. web/index.html opens the bridge
// socket back to the shell and evaluates what the shell sends.
//
//go:embed web
var FS embed.FS
