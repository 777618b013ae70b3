package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unach-dtic/chatbot-api/internal/apperrors"
	"github.com/unach-dtic/chatbot-api/internal/logging"
	"github.com/unach-dtic/chatbot-api/internal/models"
	"github.com/unach-dtic/chatbot-api/internal/services"
	"github.com/unach-dtic/chatbot-api/internal/utils"
)

// ContactResolver resolves a cedula to an institutional contact.
type ContactResolver interface {
	ResolveContact(ctx context.Context, cedula string, class models.UserClass) (*services.Contact, error)
}

// OtpIssuer issues one-time codes.
type OtpIssuer interface {
	Issue(ctx context.Context, cedula, correo, originIP string) (*models.OtpToken, error)
	Verify(ctx context.Context, cedula, code string) error
}

// OtpMailer delivers codes to the user.
type OtpMailer interface {
	SendOtp(ctx context.Context, recipient, code string) error
}

// AccountHandler serves account existence checks and the OTP send/verify
// endpoints.
type AccountHandler struct {
	identity ContactResolver
	otp      OtpIssuer
	mail     OtpMailer
	logger   *logging.StandardLogger
}

// NewAccountHandler creates the handler.
func NewAccountHandler(identity ContactResolver, otp OtpIssuer, mail OtpMailer, logger *logging.StandardLogger) *AccountHandler {
	return &AccountHandler{
		identity: identity,
		otp:      otp,
		mail:     mail,
		logger:   logger.WithComponent("account_handler"),
	}
}

// CheckAccount reports whether a contact exists for the cedula. It never
// hard-fails: identity errors degrade to exists=false so the widget flow
// can continue.
func (h *AccountHandler) CheckAccount(c *gin.Context) {
	var req models.CheckAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"exists": false})
		return
	}

	contact, err := h.identity.ResolveContact(c.Request.Context(), strings.TrimSpace(req.Cedula), models.UserClass(req.UserType))
	if err != nil {
		h.logger.WithError(err).Warn("check_account lookup failed",
			zap.String("cedula", utils.MaskCedula(req.Cedula)))
		c.JSON(http.StatusOK, gin.H{"exists": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": contact != nil})
}

// SendOtp resolves the cedula's contact, issues a code, and mails it. Mail
// delivery failure is reported even though the code was already issued; the
// user can retry and the previous row stays inert.
func (h *AccountHandler) SendOtp(c *gin.Context) {
	var req models.SendOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.New(apperrors.KindValidation, "Solicitud inválida."))
		return
	}

	cedula := strings.TrimSpace(req.Cedula)
	if !isDigits(cedula) || len(cedula) < 8 {
		respondError(c, apperrors.New(apperrors.KindValidation, "Cédula inválida."))
		return
	}

	contact, err := h.identity.ResolveContact(c.Request.Context(), cedula, models.UserClass(req.UserType))
	if err != nil {
		respondError(c, err)
		return
	}
	if contact == nil {
		respondError(c, apperrors.New(apperrors.KindNotFound, "No se encontró correo para esta cédula."))
		return
	}

	token, err := h.otp.Issue(c.Request.Context(), cedula, contact.Email, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.mail.SendOtp(c.Request.Context(), contact.Email, token.Codigo); err != nil {
		respondError(c, err)
		return
	}
	respondStatus(c, http.StatusOK, fmt.Sprintf("OTP enviado a %s.", contact.Email))
}

// VerifyOtp checks the code without consuming it.
func (h *AccountHandler) VerifyOtp(c *gin.Context) {
	var req models.VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.New(apperrors.KindValidation, "Formato inválido."))
		return
	}

	cedula := strings.TrimSpace(req.Cedula)
	code := strings.TrimSpace(req.Otp)
	if !isDigits(cedula) || !isDigits(code) || len(code) != 6 {
		respondError(c, apperrors.New(apperrors.KindValidation, "Formato inválido."))
		return
	}

	if err := h.otp.Verify(c.Request.Context(), cedula, code); err != nil {
		respondError(c, err)
		return
	}
	respondStatus(c, http.StatusOK, "✅ OTP verificado correctamente.")
}
