package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unach-dtic/chatbot-api/internal/apperrors"
	"github.com/unach-dtic/chatbot-api/internal/database"
	"github.com/unach-dtic/chatbot-api/internal/logging"
	"github.com/unach-dtic/chatbot-api/internal/models"
	"github.com/unach-dtic/chatbot-api/internal/utils"
)

// OtpTTL is how long an issued code stays valid.
const OtpTTL = 10 * time.Minute

// maxOtpAttempts caps verification attempts per token.
const maxOtpAttempts = 5

// Sentinel OTP failures. Handlers map these to HTTP statuses through the
// apperrors kinds they carry.
var (
	ErrOtpNotFound         = apperrors.New(apperrors.KindNotFound, "OTP no encontrado.")
	ErrOtpExpired          = apperrors.New(apperrors.KindStateConflict, "El OTP ha expirado.")
	ErrOtpAlreadyUsed      = apperrors.New(apperrors.KindStateConflict, "Este OTP ya fue usado.")
	ErrOtpAttemptsExceeded = apperrors.New(apperrors.KindStateConflict, "Máximo intentos superado.")
)

// OtpAuthority issues, verifies, and consumes one-time codes. Tokens are
// looked up by (cedula, code) taking the most recently issued match, so
// re-requesting a code leaves older rows inert.
type OtpAuthority struct {
	db     database.DBPool
	logger *logging.StandardLogger
}

// NewOtpAuthority builds an authority over db.
func NewOtpAuthority(db database.DBPool, logger *logging.StandardLogger) *OtpAuthority {
	return &OtpAuthority{db: db, logger: logger.WithComponent("otp_authority")}
}

// Issue generates a fresh 6-digit code for cedula and persists it with a
// 10-minute expiry. The caller is responsible for delivering the code.
func (a *OtpAuthority) Issue(ctx context.Context, cedula, correo, originIP string) (*models.OtpToken, error) {
	code, err := generateNumericCode(6)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "", err)
	}

	now := time.Now().UTC()
	token := &models.OtpToken{
		ID:        uuid.New().String(),
		Cedula:    cedula,
		Correo:    correo,
		Codigo:    code,
		IssuedAt:  now,
		ExpiresAt: now.Add(OtpTTL),
		Comment:   "Enviado OTP",
		OriginIP:  originIP,
	}

	_, err = a.db.Exec(ctx, `
		INSERT INTO otp_tokens (id, cedula, correo, codigo_otp, expiracion, intentos, usado, comentario, ip_origen, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, FALSE, $6, $7, $8)`,
		token.ID, token.Cedula, token.Correo, token.Codigo, token.ExpiresAt, token.Comment, token.OriginIP, token.IssuedAt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "", fmt.Errorf("inserting otp token: %w", err))
	}

	a.logger.Info("otp issued",
		zap.String("cedula", utils.MaskCedula(cedula)),
		zap.Time("expires_at", token.ExpiresAt))
	return token, nil
}

// Verify checks code against the latest token for cedula without consuming
// it. Every call past the existence and attempts checks increments the
// attempt counter, including calls that then fail as expired or used.
func (a *OtpAuthority) Verify(ctx context.Context, cedula, code string) error {
	token, err := a.latestToken(ctx, cedula, code)
	if err != nil {
		return err
	}
	if token.Attempts >= maxOtpAttempts {
		return ErrOtpAttemptsExceeded
	}

	if _, err := a.db.Exec(ctx,
		`UPDATE otp_tokens SET intentos = intentos + 1 WHERE id = $1`, token.ID); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "", fmt.Errorf("incrementing otp attempts: %w", err))
	}

	now := time.Now().UTC()
	if token.Expired(now) {
		if _, err := a.db.Exec(ctx,
			`UPDATE otp_tokens SET comentario = $2 WHERE id = $1`, token.ID, "OTP expirado"); err != nil {
			a.logger.WithError(err).Warn("failed to annotate expired otp")
		}
		return ErrOtpExpired
	}
	if token.Used {
		return ErrOtpAlreadyUsed
	}

	comment := fmt.Sprintf("✅ Verificado en %s", now.Format("2006-01-02 15:04:05"))
	if _, err := a.db.Exec(ctx,
		`UPDATE otp_tokens SET comentario = $2 WHERE id = $1`, token.ID, comment); err != nil {
		a.logger.WithError(err).Warn("failed to annotate verified otp")
	}
	return nil
}

// Consume atomically marks the latest matching token as used. The update is
// conditional on usado = FALSE, so among concurrent consumers of the same
// token exactly one succeeds and the rest fail as already used.
func (a *OtpAuthority) Consume(ctx context.Context, cedula, code, comment string) error {
	token, err := a.latestToken(ctx, cedula, code)
	if err != nil {
		return err
	}
	if token.Expired(time.Now().UTC()) {
		return ErrOtpExpired
	}
	if token.Used {
		return ErrOtpAlreadyUsed
	}

	res, err := a.db.Exec(ctx,
		`UPDATE otp_tokens SET usado = TRUE, comentario = $2 WHERE id = $1 AND usado = FALSE`,
		token.ID, comment)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "", fmt.Errorf("consuming otp token: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "", fmt.Errorf("consuming otp token: %w", err))
	}
	if affected == 0 {
		return ErrOtpAlreadyUsed
	}

	a.logger.Info("otp consumed", zap.String("cedula", utils.MaskCedula(cedula)))
	return nil
}

func (a *OtpAuthority) latestToken(ctx context.Context, cedula, code string) (*models.OtpToken, error) {
	row := a.db.QueryRow(ctx, `
		SELECT id, cedula, correo, codigo_otp, expiracion, intentos, usado, comentario, ip_origen, created_at
		FROM otp_tokens
		WHERE cedula = $1 AND codigo_otp = $2
		ORDER BY created_at DESC
		LIMIT 1`,
		cedula, code)

	var t models.OtpToken
	err := row.Scan(&t.ID, &t.Cedula, &t.Correo, &t.Codigo, &t.ExpiresAt, &t.Attempts, &t.Used, &t.Comment, &t.OriginIP, &t.IssuedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrOtpNotFound
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "", fmt.Errorf("loading otp token: %w", err))
	}
	return &t, nil
}

// generateNumericCode returns a zero-padded numeric string of the given
// length using crypto/rand.
func generateNumericCode(length int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generating otp code: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
