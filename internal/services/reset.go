package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unach-dtic/chatbot-api/internal/apperrors"
	"github.com/unach-dtic/chatbot-api/internal/logging"
	"github.com/unach-dtic/chatbot-api/internal/models"
)

// ResetService orchestrates OTP-gated password resets. The OTP is consumed
// before the backend is touched: a burned code on backend failure is the
// accepted cost of guaranteeing a code can never authorize two changes.
type ResetService struct {
	otp    *OtpAuthority
	radius CredentialBackend
	ldap   CredentialBackend
	logger *logging.StandardLogger
}

// NewResetService wires the authority and backends.
func NewResetService(otp *OtpAuthority, radius, ldap CredentialBackend, logger *logging.StandardLogger) *ResetService {
	return &ResetService{otp: otp, radius: radius, ldap: ldap, logger: logger.WithComponent("reset_service")}
}

// Reset consumes the code for req.SubjectID and applies the change to the
// backend named by req.BackendKind. A consume failure stops the flow before
// any backend call; a backend failure after consumption is terminal for that
// code and the user must request a new one.
func (s *ResetService) Reset(ctx context.Context, code string, req models.CredentialChangeRequest) error {
	backend, err := s.backendFor(req.BackendKind)
	if err != nil {
		return err
	}

	comment := fmt.Sprintf("✅ Consumido en reset %s %s",
		req.BackendKind, time.Now().UTC().Format(time.RFC3339))
	if err := s.otp.Consume(ctx, req.SubjectID, code, comment); err != nil {
		return err
	}

	if err := backend.Apply(ctx, req); err != nil {
		s.logger.WithError(err).Error("password change failed after otp consumption",
			zap.String("usuario", req.SubjectID),
			zap.String("backend", req.BackendKind.String()))
		return err
	}
	return nil
}

func (s *ResetService) backendFor(kind models.BackendKind) (CredentialBackend, error) {
	switch kind {
	case models.BackendRadiusStudent, models.BackendRadiusStaff:
		return s.radius, nil
	case models.BackendLDAP:
		return s.ldap, nil
	default:
		return nil, apperrors.New(apperrors.KindValidation, "Grupo inválido.")
	}
}
