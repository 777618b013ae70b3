package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unach-dtic/chatbot-api/internal/database"
	"github.com/unach-dtic/chatbot-api/internal/logging"
	"github.com/unach-dtic/chatbot-api/internal/models"
)

// AuditLog appends password-change records to the main store. Callers treat
// a failed append as a logging problem, never as a reason to undo the change
// it describes.
type AuditLog struct {
	db     database.DBPool
	logger *logging.StandardLogger
}

// NewAuditLog builds a log over db.
func NewAuditLog(db database.DBPool, logger *logging.StandardLogger) *AuditLog {
	return &AuditLog{db: db, logger: logger.WithComponent("audit_log")}
}

// Record appends one entry. ID and timestamp are filled in when absent.
func (l *AuditLog) Record(ctx context.Context, rec models.AuditRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	_, err := l.db.Exec(ctx, `
		INSERT INTO password_change_log (id, usuario, sistema, ip_origen, fecha_hora, observacion)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Subject, rec.System, rec.OriginIP, rec.Timestamp, rec.Note)
	if err != nil {
		return fmt.Errorf("recording password change: %w", err)
	}
	return nil
}
