package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unach-dtic/chatbot-api/internal/cache"
	"github.com/unach-dtic/chatbot-api/internal/models"
)

// FaqReloader rebuilds the FAQ snapshot from the database.
type FaqReloader interface {
	Reload(ctx context.Context) error
	Len() int
}

// UnansweredLister lists pending unanswered questions.
type UnansweredLister interface {
	ListPending(ctx context.Context, limit int) ([]models.UnansweredQuestion, error)
}

// AdminHandler serves the JWT-guarded curation endpoints.
type AdminHandler struct {
	faq        FaqReloader
	unanswered UnansweredLister
	responses  *cache.ResponseCache
}

// NewAdminHandler creates the handler. responses may be nil.
func NewAdminHandler(faq FaqReloader, unanswered UnansweredLister, responses *cache.ResponseCache) *AdminHandler {
	return &AdminHandler{faq: faq, unanswered: unanswered, responses: responses}
}

// ReloadFaq swaps in a fresh FAQ snapshot. Queries in flight keep answering
// from the old one until the swap lands. Cached answers are flushed so a
// changed respuesta takes effect immediately.
func (h *AdminHandler) ReloadFaq(c *gin.Context) {
	if err := h.faq.Reload(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	_ = h.responses.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"entries": h.faq.Len(),
	})
}

// ListUnanswered returns the most recent pending questions for curation.
func (h *AdminHandler) ListUnanswered(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	questions, err := h.unanswered.ListPending(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if questions == nil {
		questions = []models.UnansweredQuestion{}
	}
	c.JSON(http.StatusOK, gin.H{"preguntas": questions, "total": len(questions)})
}
