package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/unach-dtic/chatbot-api/internal/apperrors"
	"github.com/unach-dtic/chatbot-api/internal/database"
	"github.com/unach-dtic/chatbot-api/internal/logging"
	"github.com/unach-dtic/chatbot-api/internal/models"
)

// radiusStoreSelector picks the FreeRADIUS store for a backend kind.
// Satisfied by database.RadiusStores; tests substitute a fake.
type radiusStoreSelector interface {
	ForGroup(kind models.BackendKind) (database.DBPool, error)
}

// RadiusBackend rewrites the Cleartext-Password row in a FreeRADIUS radcheck
// table. The UPDATE is the existence check: zero affected rows means the
// subject has no account in that store.
type RadiusBackend struct {
	stores radiusStoreSelector
	audit  *AuditLog
	logger *logging.StandardLogger
}

// NewRadiusBackend builds a backend over the configured group stores.
func NewRadiusBackend(stores radiusStoreSelector, audit *AuditLog, logger *logging.StandardLogger) *RadiusBackend {
	return &RadiusBackend{stores: stores, audit: audit, logger: logger.WithComponent("radius_backend")}
}

// System identifies this backend in audit records.
func (b *RadiusBackend) System() models.AuditSystem { return models.AuditSystemRadius }

// Apply updates the subject's password in the store matching req.BackendKind.
func (b *RadiusBackend) Apply(ctx context.Context, req models.CredentialChangeRequest) error {
	pool, err := b.stores.ForGroup(req.BackendKind)
	if err != nil {
		return apperrors.Wrap(apperrors.KindValidation, "Grupo inválido.", err)
	}

	res, err := pool.Exec(ctx, `
		UPDATE radcheck
		SET value = ?
		WHERE username = ? AND attribute = 'Cleartext-Password'`,
		req.NewSecret, req.SubjectID)
	if err != nil {
		b.recordOutcome(ctx, req, fmt.Sprintf("Error actualizando RADIUS: %v", err))
		return backendUnavailable(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		b.recordOutcome(ctx, req, fmt.Sprintf("Error actualizando RADIUS: %v", err))
		return apperrors.Wrap(apperrors.KindInternal, "", err)
	}
	if affected == 0 {
		b.recordOutcome(ctx, req, "Usuario no encontrado en RADIUS")
		return ErrSubjectNotFound
	}

	b.logger.Info("radius password updated",
		zap.String("usuario", req.SubjectID),
		zap.String("grupo", req.BackendKind.String()))
	b.recordOutcome(ctx, req, "Cambio de contraseña exitoso")
	return nil
}

// recordOutcome writes the audit entry for one apply attempt. Audit failures
// are logged and swallowed so they never overturn the apply outcome.
func (b *RadiusBackend) recordOutcome(ctx context.Context, req models.CredentialChangeRequest, note string) {
	err := b.audit.Record(ctx, models.AuditRecord{
		Subject:  req.SubjectID,
		System:   b.System(),
		OriginIP: req.OriginIP,
		Note:     note,
	})
	if err != nil {
		b.logger.WithError(err).Warn("audit write failed",
			zap.String("usuario", req.SubjectID))
	}
}
