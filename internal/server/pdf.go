package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// RenderDrawPDF streams a rendered invoice for a committed draw. The
// document is rebuilt from the ledger so re-downloads match the invoice
// that was originally issued.
func (s *Server) RenderDrawPDF(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	drawNumber, err := strconv.Atoi(c.Param("num"))
	if err != nil {
		AbortWithError(c, newValidationError("num", "invalid_draw_number", "invalid draw number"))
		return
	}

	project, err := s.projectSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.assembler.BuildForDraw(project, drawNumber)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	reader, err := s.renderer.RenderDocument(c.Request.Context(), doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", content)
}
