// Package server handles embedding and serving of the hosted document.
// Static files are embedded via the root-level webui package,
// which can access the sibling web/ directory via go:embed.
package server

import (
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vesaa/calqshell/webui"
)

// handleDocument serves the hosted page that connects back over /bridge.
func (s *Server) handleDocument(c *gin.Context) {
	page, err := fs.ReadFile(webui.FS, "web/index.html")
	if err != nil {
		c.String(http.StatusNotFound, "hosted document not embedded")
		return
	}
	for k, v := range s.Identity.Headers() {
		if k == "User-Agent" {
			continue
		}
		c.Header(k, v)
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
