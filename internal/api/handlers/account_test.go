package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unach-dtic/chatbot-api/internal/apperrors"
	"github.com/unach-dtic/chatbot-api/internal/logging"
	"github.com/unach-dtic/chatbot-api/internal/models"
	"github.com/unach-dtic/chatbot-api/internal/services"
)

type fakeIdentity struct {
	contact  *services.Contact
	err      error
	gotClass models.UserClass
}

func (f *fakeIdentity) ResolveContact(_ context.Context, _ string, class models.UserClass) (*services.Contact, error) {
	f.gotClass = class
	return f.contact, f.err
}

type fakeOtp struct {
	issueErr  error
	verifyErr error
	issued    *models.OtpToken
	verified  []string
}

func (f *fakeOtp) Issue(_ context.Context, cedula, correo, originIP string) (*models.OtpToken, error) {
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	f.issued = &models.OtpToken{
		Cedula:    cedula,
		Correo:    correo,
		Codigo:    "482913",
		OriginIP:  originIP,
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	return f.issued, nil
}

func (f *fakeOtp) Verify(_ context.Context, cedula, code string) error {
	f.verified = append(f.verified, cedula+":"+code)
	return f.verifyErr
}

type fakeMailer struct {
	err  error
	sent []string
}

func (f *fakeMailer) SendOtp(_ context.Context, recipient, code string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, recipient+":"+code)
	return nil
}

type accountFixture struct {
	identity *fakeIdentity
	otp      *fakeOtp
	mail     *fakeMailer
	router   *gin.Engine
}

func newAccountFixture() *accountFixture {
	gin.SetMode(gin.TestMode)
	f := &accountFixture{
		identity: &fakeIdentity{},
		otp:      &fakeOtp{},
		mail:     &fakeMailer{},
	}
	logger := logging.NewStandardLogger("error", "test")
	handler := NewAccountHandler(f.identity, f.otp, f.mail, logger)

	f.router = gin.New()
	f.router.POST("/api/chatbot/check_account", handler.CheckAccount)
	f.router.POST("/api/chatbot/enviar_otp", handler.SendOtp)
	f.router.POST("/api/chatbot/verificar_otp", handler.VerifyOtp)
	return f
}

func TestCheckAccountExists(t *testing.T) {
	f := newAccountFixture()
	f.identity.contact = &services.Contact{Email: "ana.lopez@unach.edu.ec", Name: "Ana López"}

	w := postJSON(t, f.router, "/api/chatbot/check_account", gin.H{
		"cedula": "0601234567", "user_type": "estudiante", "servicio": "wifi",
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"exists": true}`, w.Body.String())
	assert.Equal(t, models.UserClassStudent, f.identity.gotClass)
}

func TestCheckAccountNotFound(t *testing.T) {
	f := newAccountFixture()

	w := postJSON(t, f.router, "/api/chatbot/check_account", gin.H{
		"cedula": "0601234567", "user_type": "servidor", "servicio": "zoom",
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"exists": false}`, w.Body.String())
}

func TestCheckAccountDegradesOnIdentityFailure(t *testing.T) {
	f := newAccountFixture()
	f.identity.err = apperrors.New(apperrors.KindUpstreamUnavailable, "La API institucional no está disponible.")

	w := postJSON(t, f.router, "/api/chatbot/check_account", gin.H{
		"cedula": "0601234567", "user_type": "estudiante", "servicio": "wifi",
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"exists": false}`, w.Body.String())
}

func TestSendOtpSuccess(t *testing.T) {
	f := newAccountFixture()
	f.identity.contact = &services.Contact{Email: "ana.lopez@unach.edu.ec"}

	w := postJSON(t, f.router, "/api/chatbot/enviar_otp", gin.H{
		"cedula": "0601234567", "user_type": "estudiante", "servicio": "wifi",
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "OTP enviado a ana.lopez@unach.edu.ec.")
	require.NotNil(t, f.otp.issued)
	assert.Equal(t, "0601234567", f.otp.issued.Cedula)
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "ana.lopez@unach.edu.ec:482913", f.mail.sent[0])
}

func TestSendOtpInvalidCedula(t *testing.T) {
	f := newAccountFixture()

	for _, cedula := range []string{"12345", "06012A4567", "  "} {
		w := postJSON(t, f.router, "/api/chatbot/enviar_otp", gin.H{
			"cedula": cedula, "user_type": "estudiante", "servicio": "wifi",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "cedula %q", cedula)
	}
	assert.Nil(t, f.otp.issued)
}

func TestSendOtpUnknownUserType(t *testing.T) {
	f := newAccountFixture()

	w := postJSON(t, f.router, "/api/chatbot/enviar_otp", gin.H{
		"cedula": "0601234567", "user_type": "egresado", "servicio": "wifi",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Solicitud inválida.")
}

func TestSendOtpNoContact(t *testing.T) {
	f := newAccountFixture()

	w := postJSON(t, f.router, "/api/chatbot/enviar_otp", gin.H{
		"cedula": "0601234567", "user_type": "estudiante", "servicio": "wifi",
	}, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No se encontró correo para esta cédula.")
}

func TestSendOtpIdentityDown(t *testing.T) {
	f := newAccountFixture()
	f.identity.err = apperrors.New(apperrors.KindUpstreamUnavailable, "La API institucional no está disponible.")

	w := postJSON(t, f.router, "/api/chatbot/enviar_otp", gin.H{
		"cedula": "0601234567", "user_type": "servidor", "servicio": "zoom",
	}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Nil(t, f.otp.issued)
}

func TestSendOtpMailFailureAfterIssue(t *testing.T) {
	f := newAccountFixture()
	f.identity.contact = &services.Contact{Email: "ana.lopez@unach.edu.ec"}
	f.mail.err = apperrors.New(apperrors.KindUpstreamUnavailable, "No se pudo enviar el correo con el código.")

	w := postJSON(t, f.router, "/api/chatbot/enviar_otp", gin.H{
		"cedula": "0601234567", "user_type": "estudiante", "servicio": "wifi",
	}, nil)

	// The code row was already written; the caller still learns delivery
	// failed and can retry.
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotNil(t, f.otp.issued)
}

func TestVerifyOtpSuccess(t *testing.T) {
	f := newAccountFixture()

	w := postJSON(t, f.router, "/api/chatbot/verificar_otp", gin.H{
		"cedula": "0601234567", "otp": "482913",
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "✅ OTP verificado correctamente.")
	require.Len(t, f.otp.verified, 1)
	assert.Equal(t, "0601234567:482913", f.otp.verified[0])
}

func TestVerifyOtpBadFormat(t *testing.T) {
	f := newAccountFixture()

	for _, otp := range []string{"12345", "1234567", "48291a"} {
		w := postJSON(t, f.router, "/api/chatbot/verificar_otp", gin.H{
			"cedula": "0601234567", "otp": otp,
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "otp %q", otp)
	}
	assert.Empty(t, f.otp.verified)
}

func TestVerifyOtpErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", services.ErrOtpNotFound, http.StatusNotFound, "OTP no encontrado."},
		{"expired", services.ErrOtpExpired, http.StatusBadRequest, "El OTP ha expirado."},
		{"already used", services.ErrOtpAlreadyUsed, http.StatusBadRequest, "Este OTP ya fue usado."},
		{"attempts exceeded", services.ErrOtpAttemptsExceeded, http.StatusBadRequest, "Máximo intentos superado."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAccountFixture()
			f.otp.verifyErr = tc.err

			w := postJSON(t, f.router, "/api/chatbot/verificar_otp", gin.H{
				"cedula": "0601234567", "otp": "482913",
			}, nil)

			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.message)
		})
	}
}
