package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexforge/lexforge/internal/domain"
)

// wordRequest is the single-word endpoint body.
type wordRequest struct {
	Word string `json:"word" binding:"required"`
	// Profile optionally names a sampling preset.
	Profile string `json:"profile"`
}

// wordsRequest is the batch endpoint body.
type wordsRequest struct {
	Words []string `json:"words" binding:"required,min=1"`
}

// errorResponse is the failure body. Error carries the message,
// Category the stable failure class.
type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category"`
}

// handleWord runs one word through the pipeline and returns the
// linguistic entry itself on success.
func (s *Server) handleWord(c *gin.Context) {
	var req wordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:    "body must carry a non-empty word field",
			Category: domain.CategoryInputError,
		})
		return
	}

	sampling, ok := s.profiles.Get(req.Profile, s.baseSampling)
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:    "unknown sampling profile: " + req.Profile,
			Category: domain.CategoryInputError,
		})
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	result := s.svc.RunWord(ctx, req.Word, sampling)
	if !result.OK {
		c.JSON(statusForCategory(result.Category), errorResponse{
			Error:    result.Error,
			Category: result.Category,
		})
		return
	}
	c.JSON(http.StatusOK, result.Data)
}

// handleWords runs a batch. Partial failure never changes the batch's
// HTTP status: the response is always the full ordered array, one item
// per input word in input order.
func (s *Server) handleWords(c *gin.Context) {
	var req wordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:    "body must carry a non-empty words array",
			Category: domain.CategoryInputError,
		})
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	batch, err := s.svc.RunBatch(ctx, req.Words)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:    err.Error(),
			Category: domain.CategoryInputError,
		})
		return
	}
	c.JSON(http.StatusOK, batch.Results)
}

// requestContext derives the per-request deadline from the client's
// own request lifetime, so a disconnect cancels admission waits and
// in-flight engine calls.
func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), s.requestTimeout)
}

// statusForCategory maps a failure category to an HTTP status.
func statusForCategory(category string) int {
	switch category {
	case domain.CategoryInputError:
		return http.StatusBadRequest
	case domain.CategoryEngineUnavailable:
		return http.StatusServiceUnavailable
	case domain.CategoryEngineTimeout:
		return http.StatusGatewayTimeout
	case domain.CategoryMalformedJSON, domain.CategorySchemaViolation, domain.CategorySemanticViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
