package services

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unach-dtic/chatbot-api/internal/apperrors"
	"github.com/unach-dtic/chatbot-api/internal/database"
	"github.com/unach-dtic/chatbot-api/internal/logging"
)

var otpColumns = []string{
	"id", "cedula", "correo", "codigo_otp", "expiracion",
	"intentos", "usado", "comentario", "ip_origen", "created_at",
}

func newTestAuthority(t *testing.T) (*OtpAuthority, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, mock, err := database.NewMockDBPoolFromNewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewOtpAuthority(pool, logging.NewStandardLogger("error", "test")), mock
}

func expectLatestToken(mock pgxmock.PgxPoolIface, attempts int, used bool, expiresAt time.Time) {
	mock.ExpectQuery("SELECT (.+) FROM otp_tokens").
		WithArgs("0102030405", "123456").
		WillReturnRows(pgxmock.NewRows(otpColumns).AddRow(
			"6f1e1b1a-0000-0000-0000-000000000001", "0102030405", "user@unach.edu.ec",
			"123456", expiresAt, attempts, used, "Enviado OTP", "10.0.0.1",
			expiresAt.Add(-OtpTTL),
		))
}

func TestIssueStampsTenMinuteExpiry(t *testing.T) {
	authority, mock := newTestAuthority(t)
	mock.ExpectExec("INSERT INTO otp_tokens").
		WithArgs(pgxmock.AnyArg(), "0102030405", "user@unach.edu.ec", pgxmock.AnyArg(),
			pgxmock.AnyArg(), "Enviado OTP", "10.0.0.1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	before := time.Now().UTC()
	token, err := authority.Issue(context.Background(), "0102030405", "user@unach.edu.ec", "10.0.0.1")
	require.NoError(t, err)

	assert.Len(t, token.Codigo, 6)
	assert.Regexp(t, `^\d{6}$`, token.Codigo)
	assert.WithinDuration(t, before.Add(OtpTTL), token.ExpiresAt, 2*time.Second)
	assert.Equal(t, token.IssuedAt.Add(OtpTTL), token.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyUnknownToken(t *testing.T) {
	authority, mock := newTestAuthority(t)
	mock.ExpectQuery("SELECT (.+) FROM otp_tokens").
		WithArgs("0102030405", "123456").
		WillReturnError(pgx.ErrNoRows)

	err := authority.Verify(context.Background(), "0102030405", "123456")
	assert.ErrorIs(t, err, ErrOtpNotFound)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestVerifyAttemptsCeilingSkipsIncrement(t *testing.T) {
	authority, mock := newTestAuthority(t)
	// attempts already at the ceiling: no UPDATE may run.
	expectLatestToken(mock, 5, false, time.Now().UTC().Add(5*time.Minute))

	err := authority.Verify(context.Background(), "0102030405", "123456")
	assert.ErrorIs(t, err, ErrOtpAttemptsExceeded)
	assert.Equal(t, apperrors.KindStateConflict, apperrors.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyIncrementsAttemptsOnExpiredToken(t *testing.T) {
	authority, mock := newTestAuthority(t)
	expectLatestToken(mock, 1, false, time.Now().UTC().Add(-time.Minute))
	mock.ExpectExec("UPDATE otp_tokens SET intentos").
		WithArgs("6f1e1b1a-0000-0000-0000-000000000001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE otp_tokens SET comentario").
		WithArgs("6f1e1b1a-0000-0000-0000-000000000001", "OTP expirado").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := authority.Verify(context.Background(), "0102030405", "123456")
	assert.ErrorIs(t, err, ErrOtpExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyIncrementsAttemptsOnUsedToken(t *testing.T) {
	authority, mock := newTestAuthority(t)
	expectLatestToken(mock, 2, true, time.Now().UTC().Add(5*time.Minute))
	mock.ExpectExec("UPDATE otp_tokens SET intentos").
		WithArgs("6f1e1b1a-0000-0000-0000-000000000001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := authority.Verify(context.Background(), "0102030405", "123456")
	assert.ErrorIs(t, err, ErrOtpAlreadyUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifySuccessIsNonConsuming(t *testing.T) {
	authority, mock := newTestAuthority(t)
	expectLatestToken(mock, 0, false, time.Now().UTC().Add(5*time.Minute))
	mock.ExpectExec("UPDATE otp_tokens SET intentos").
		WithArgs("6f1e1b1a-0000-0000-0000-000000000001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE otp_tokens SET comentario").
		WithArgs("6f1e1b1a-0000-0000-0000-000000000001", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, authority.Verify(context.Background(), "0102030405", "123456"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyExpiryBoundary(t *testing.T) {
	authority, mock := newTestAuthority(t)
	// One second of validity left: must succeed, not expire.
	expectLatestToken(mock, 0, false, time.Now().UTC().Add(time.Second))
	mock.ExpectExec("UPDATE otp_tokens SET intentos").
		WithArgs("6f1e1b1a-0000-0000-0000-000000000001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE otp_tokens SET comentario").
		WithArgs("6f1e1b1a-0000-0000-0000-000000000001", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, authority.Verify(context.Background(), "0102030405", "123456"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeMarksTokenUsed(t *testing.T) {
	authority, mock := newTestAuthority(t)
	expectLatestToken(mock, 1, false, time.Now().UTC().Add(5*time.Minute))
	mock.ExpectExec("UPDATE otp_tokens SET usado").
		WithArgs("6f1e1b1a-0000-0000-0000-000000000001", "consumido").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, authority.Consume(context.Background(), "0102030405", "123456", "consumido"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeLosesRaceWhenRowAlreadyUsed(t *testing.T) {
	authority, mock := newTestAuthority(t)
	// The snapshot read saw usado = FALSE but the conditional UPDATE finds
	// the row taken: the concurrent loser path.
	expectLatestToken(mock, 1, false, time.Now().UTC().Add(5*time.Minute))
	mock.ExpectExec("UPDATE otp_tokens SET usado").
		WithArgs("6f1e1b1a-0000-0000-0000-000000000001", "consumido").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := authority.Consume(context.Background(), "0102030405", "123456", "consumido")
	assert.ErrorIs(t, err, ErrOtpAlreadyUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeRejectsExpiredToken(t *testing.T) {
	authority, mock := newTestAuthority(t)
	expectLatestToken(mock, 1, false, time.Now().UTC().Add(-time.Minute))

	err := authority.Consume(context.Background(), "0102030405", "123456", "consumido")
	assert.ErrorIs(t, err, ErrOtpExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeRejectsUsedToken(t *testing.T) {
	authority, mock := newTestAuthority(t)
	expectLatestToken(mock, 1, true, time.Now().UTC().Add(5*time.Minute))

	err := authority.Consume(context.Background(), "0102030405", "123456", "consumido")
	assert.ErrorIs(t, err, ErrOtpAlreadyUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateNumericCodeZeroPads(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateNumericCode(6)
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
	}
}
