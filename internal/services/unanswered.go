package services

import (
	"context"
	"fmt"

	"github.com/unach-dtic/chatbot-api/internal/database"
	"github.com/unach-dtic/chatbot-api/internal/logging"
	"github.com/unach-dtic/chatbot-api/internal/models"
)

// UnansweredStore persists queries the resolver could not answer so staff can
// curate new FAQ entries from them.
type UnansweredStore struct {
	db     database.DBPool
	logger *logging.StandardLogger
}

// NewUnansweredStore builds a store over db.
func NewUnansweredStore(db database.DBPool, logger *logging.StandardLogger) *UnansweredStore {
	return &UnansweredStore{db: db, logger: logger.WithComponent("unanswered_store")}
}

// Record inserts a pending unanswered question.
func (s *UnansweredStore) Record(ctx context.Context, q models.UnansweredQuestion) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO unanswered_questions (pregunta, usuario_ip, origen, url_origen, estado)
		VALUES ($1, $2, $3, $4, $5)`,
		q.Pregunta, q.UsuarioIP, q.Origen, q.URLOrigen, models.UnansweredStatePending)
	if err != nil {
		return fmt.Errorf("recording unanswered question: %w", err)
	}
	return nil
}

// ListPending returns the most recent pending questions, newest first.
func (s *UnansweredStore) ListPending(ctx context.Context, limit int) ([]models.UnansweredQuestion, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, pregunta, fecha, COALESCE(usuario_ip, ''), COALESCE(origen, ''), COALESCE(url_origen, ''), estado
		FROM unanswered_questions
		WHERE estado = $1
		ORDER BY fecha DESC
		LIMIT $2`,
		models.UnansweredStatePending, limit)
	if err != nil {
		return nil, fmt.Errorf("listing unanswered questions: %w", err)
	}
	defer rows.Close()

	var out []models.UnansweredQuestion
	for rows.Next() {
		var q models.UnansweredQuestion
		if err := rows.Scan(&q.ID, &q.Pregunta, &q.Fecha, &q.UsuarioIP, &q.Origen, &q.URLOrigen, &q.Estado); err != nil {
			return nil, fmt.Errorf("scanning unanswered question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating unanswered questions: %w", err)
	}
	return out, nil
}
