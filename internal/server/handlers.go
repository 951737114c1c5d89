// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/reference-assistant/internal/apperr"
	"github.com/pdiddy/reference-assistant/internal/extract"
	"github.com/pdiddy/reference-assistant/internal/gateway"
	"github.com/pdiddy/reference-assistant/pkg/types"
)

// ExtractRequest is the body of POST /extract-references.
type ExtractRequest struct {
	PDFBase64 string `json:"pdfBase64"`
}

// ExtractResponse is the success body of POST /extract-references.
type ExtractResponse struct {
	References []types.ReferenceItem `json:"references"`
}

// SearchRequest is the body of POST /search-reference.
type SearchRequest struct {
	Query string `json:"query"`
}

// ErrorResponse is the body of every failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Client-facing validation messages.
const (
	msgMissingPDF  = "pdfBase64 is required"
	msgInvalidPDF  = "pdfBase64 is not valid base64"
	msgMissingQry  = "query is required"
	msgInvalidBody = "request body must be JSON"
	msgTooLarge    = "request body too large"
)

func (s *Server) handleExtract(c *gin.Context) {
	var req ExtractRequest
	if !s.bind(c, &req) {
		return
	}
	if strings.TrimSpace(req.PDFBase64) == "" {
		abortError(c, http.StatusBadRequest, msgMissingPDF)
		return
	}

	pdf, err := extract.DecodePayload(req.PDFBase64)
	if err != nil {
		s.log.Info("server.extract.bad_payload", "req_id", requestIDFrom(c), "error", err)
		abortError(c, http.StatusBadRequest, msgInvalidPDF)
		return
	}
	if len(pdf) > types.MaxDocumentSize {
		abortError(c, http.StatusRequestEntityTooLarge, msgTooLarge)
		return
	}

	refs, err := s.extractor.Extract(c.Request.Context(), pdf)
	if err != nil {
		s.fail(c, err, apperr.MsgExtractFailed)
		return
	}
	if refs == nil {
		refs = []types.ReferenceItem{}
	}
	c.JSON(http.StatusOK, ExtractResponse{References: refs})
}

func (s *Server) handleSearch(c *gin.Context) {
	var req SearchRequest
	if !s.bind(c, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		abortError(c, http.StatusBadRequest, msgMissingQry)
		return
	}

	out, err := s.searcher.Search(c.Request.Context(), req.Query)
	if err != nil {
		s.fail(c, err, apperr.MsgSearchFailed)
		return
	}
	if out.Sources == nil {
		out.Sources = []types.GroundingSource{}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.version})
}

// bind decodes the JSON body into v. It writes the failure response and
// returns false when the body is missing, malformed, or over the limit.
func (s *Server) bind(c *gin.Context, v any) bool {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		abortError(c, http.StatusRequestEntityTooLarge, msgTooLarge)
		return false
	}
	s.log.Info("server.bad_request", "req_id", requestIDFrom(c), "error", err)
	abortError(c, http.StatusBadRequest, msgInvalidBody)
	return false
}

// fail maps a service error to a status and user message. Configuration
// problems never reveal which credential is missing.
func (s *Server) fail(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	msg := apperr.UserMessage(err, fallback)

	switch {
	case errors.Is(err, gateway.ErrNoAPIKey), apperr.Is(err, apperr.KindConfiguration):
		msg = apperr.MsgConfiguration
	case apperr.Is(err, apperr.KindValidation):
		status = http.StatusBadRequest
	}

	s.log.Error("server.request_failed",
		"req_id", requestIDFrom(c),
		"path", c.FullPath(),
		"status", status,
		"error", err,
	)
	abortError(c, status, msg)
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}
