// Package handlers implements the gin handlers for the chatbot API.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/unach-dtic/chatbot-api/internal/apperrors"
	"github.com/unach-dtic/chatbot-api/internal/middleware"
	"github.com/unach-dtic/chatbot-api/internal/models"
)

// respondError maps a service error to its HTTP status and user-facing
// message. Internal detail stays in the logs and in Sentry.
func respondError(c *gin.Context, err error) {
	if apperrors.KindOf(err) == apperrors.KindInternal {
		middleware.RecordError(c, err)
	}
	c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.MessageOf(err)})
}

func respondStatus(c *gin.Context, code int, message string) {
	c.JSON(code, models.StatusResponse{Status: "success", Message: message})
}

// isDigits reports whether s is non-empty and all ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
