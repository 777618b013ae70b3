package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unach-dtic/chatbot-api/internal/apperrors"
	"github.com/unach-dtic/chatbot-api/internal/models"
)

// PasswordResetter is the orchestrator surface the reset endpoints need.
type PasswordResetter interface {
	Reset(ctx context.Context, code string, req models.CredentialChangeRequest) error
}

// ResetHandler serves the OTP-gated password reset endpoints.
type ResetHandler struct {
	reset PasswordResetter
}

// NewResetHandler creates the handler.
func NewResetHandler(reset PasswordResetter) *ResetHandler {
	return &ResetHandler{reset: reset}
}

// ResetRadiusPassword consumes the OTP and rewrites the WiFi credential in
// the group's FreeRADIUS store.
func (h *ResetHandler) ResetRadiusPassword(c *gin.Context) {
	var req models.ResetRadiusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.New(apperrors.KindValidation, "Solicitud inválida."))
		return
	}

	kind, err := models.ParseRadiusGroup(req.Grupo)
	if err != nil {
		respondError(c, apperrors.New(apperrors.KindValidation, "Grupo inválido."))
		return
	}

	change := models.CredentialChangeRequest{
		SubjectID:   strings.TrimSpace(req.Username),
		NewSecret:   req.NewPassword,
		BackendKind: kind,
		OriginIP:    c.ClientIP(),
	}
	if err := h.reset.Reset(c.Request.Context(), strings.TrimSpace(req.ConfirmData), change); err != nil {
		respondError(c, err)
		return
	}
	respondStatus(c, http.StatusOK, "Contraseña de la red Inalambrica actualizada correctamente.")
}

// ResetZoomPassword consumes the OTP and replaces the Zoom directory
// password.
func (h *ResetHandler) ResetZoomPassword(c *gin.Context) {
	var req models.ResetZoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.New(apperrors.KindValidation, "Solicitud inválida."))
		return
	}

	change := models.CredentialChangeRequest{
		SubjectID:   strings.TrimSpace(req.Username),
		NewSecret:   req.NewPassword,
		BackendKind: models.BackendLDAP,
		OriginIP:    c.ClientIP(),
	}
	if err := h.reset.Reset(c.Request.Context(), strings.TrimSpace(req.ConfirmData), change); err != nil {
		respondError(c, err)
		return
	}
	respondStatus(c, http.StatusOK, "Contraseña de Zoom actualizada correctamente.")
}
