package services

import (
	"context"
	"fmt"

	"github.com/unach-dtic/chatbot-api/internal/apperrors"
	"github.com/unach-dtic/chatbot-api/internal/models"
)

// Sentinel credential backend failures.
var (
	ErrSubjectNotFound     = apperrors.New(apperrors.KindNotFound, "Usuario no encontrado.")
	ErrBackendUnavailable  = apperrors.New(apperrors.KindUpstreamUnavailable, "El sistema de credenciales no está disponible.")
	errBackendRejectedBase = apperrors.New(apperrors.KindBackendRejected, "El sistema de credenciales rechazó el cambio.")
)

// CredentialBackend applies a password change to one credential system.
// Implementations write one audit record per apply attempt, success or
// failure; audit write errors are logged and swallowed, never surfaced.
type CredentialBackend interface {
	Apply(ctx context.Context, req models.CredentialChangeRequest) error
	System() models.AuditSystem
}

// backendRejected wraps the directory's own message in a BackendRejected
// error.
func backendRejected(message string) error {
	if message == "" {
		return errBackendRejectedBase
	}
	return apperrors.New(apperrors.KindBackendRejected, "El sistema de credenciales rechazó el cambio: "+message)
}

// backendUnavailable ties a connectivity failure to the shared sentinel so
// callers can match it with errors.Is while the cause stays in the chain.
func backendUnavailable(cause error) error {
	if cause == nil {
		return ErrBackendUnavailable
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, cause)
}
