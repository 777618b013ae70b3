package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unach-dtic/chatbot-api/internal/apperrors"
	"github.com/unach-dtic/chatbot-api/internal/cache"
	"github.com/unach-dtic/chatbot-api/internal/models"
	"github.com/unach-dtic/chatbot-api/internal/services"
)

// QueryResolver is the resolver surface the chatbot handler needs.
type QueryResolver interface {
	Resolve(ctx context.Context, question string, origin services.QueryOrigin) (*models.QueryResponse, error)
}

// ChatbotHandler serves the /query endpoint.
type ChatbotHandler struct {
	resolver QueryResolver
	cache    *cache.ResponseCache
}

// NewChatbotHandler creates the handler. responses may be nil.
func NewChatbotHandler(resolver QueryResolver, responses *cache.ResponseCache) *ChatbotHandler {
	return &ChatbotHandler{resolver: resolver, cache: responses}
}

// Query classifies the user's question and returns the answer.
func (h *ChatbotHandler) Query(c *gin.Context) {
	var req models.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.New(apperrors.KindValidation, "Pregunta vacía."))
		return
	}

	if resp, ok := h.cache.Get(c.Request.Context(), req.Pregunta); ok {
		c.JSON(http.StatusOK, resp)
		return
	}

	resp, err := h.resolver.Resolve(c.Request.Context(), req.Pregunta, services.QueryOrigin{
		IP:      c.ClientIP(),
		Referer: c.GetHeader("Referer"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	// Only deterministic answers are worth memoizing. Unanswered questions
	// must keep hitting the resolver so each occurrence is recorded.
	switch resp.Fuente {
	case services.SourceGreeting, services.SourcePassword, services.SourceFaq:
		h.cache.Set(c.Request.Context(), req.Pregunta, resp)
	}
	c.JSON(http.StatusOK, resp)
}
