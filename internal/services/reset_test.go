package services

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unach-dtic/chatbot-api/internal/apperrors"
	"github.com/unach-dtic/chatbot-api/internal/database"
	"github.com/unach-dtic/chatbot-api/internal/logging"
	"github.com/unach-dtic/chatbot-api/internal/models"
)

type fakeBackend struct {
	system  models.AuditSystem
	err     error
	applied []models.CredentialChangeRequest
}

func (b *fakeBackend) Apply(_ context.Context, req models.CredentialChangeRequest) error {
	b.applied = append(b.applied, req)
	return b.err
}

func (b *fakeBackend) System() models.AuditSystem { return b.system }

func newResetFixture(t *testing.T, radius, ldapBackend *fakeBackend) (*ResetService, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, mock, err := database.NewMockDBPoolFromNewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	logger := logging.NewStandardLogger("error", "test")
	otp := NewOtpAuthority(pool, logger)
	return NewResetService(otp, radius, ldapBackend, logger), mock
}

func expectConsumableToken(mock pgxmock.PgxPoolIface, cedula string) {
	mock.ExpectQuery("SELECT (.+) FROM otp_tokens").
		WithArgs(cedula, "123456").
		WillReturnRows(pgxmock.NewRows(otpColumns).AddRow(
			"6f1e1b1a-0000-0000-0000-000000000002", cedula, "user@unach.edu.ec",
			"123456", time.Now().UTC().Add(5*time.Minute), 1, false,
			"Enviado OTP", "10.0.0.1", time.Now().UTC().Add(-time.Minute),
		))
}

func TestResetConsumesThenApplies(t *testing.T) {
	radius := &fakeBackend{system: models.AuditSystemRadius}
	service, mock := newResetFixture(t, radius, &fakeBackend{system: models.AuditSystemLDAP})

	expectConsumableToken(mock, "0102030405")
	mock.ExpectExec("UPDATE otp_tokens SET usado").
		WithArgs("6f1e1b1a-0000-0000-0000-000000000002", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	req := models.CredentialChangeRequest{
		SubjectID:   "0102030405",
		NewSecret:   "NewPass1",
		BackendKind: models.BackendRadiusStudent,
		OriginIP:    "10.0.0.1",
	}
	require.NoError(t, service.Reset(context.Background(), "123456", req))
	require.Len(t, radius.applied, 1)
	assert.Equal(t, "NewPass1", radius.applied[0].NewSecret)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetStopsBeforeBackendWhenConsumeFails(t *testing.T) {
	radius := &fakeBackend{system: models.AuditSystemRadius}
	service, mock := newResetFixture(t, radius, &fakeBackend{system: models.AuditSystemLDAP})

	// Token already used: consume must fail and the backend stay untouched.
	mock.ExpectQuery("SELECT (.+) FROM otp_tokens").
		WithArgs("0102030405", "123456").
		WillReturnRows(pgxmock.NewRows(otpColumns).AddRow(
			"6f1e1b1a-0000-0000-0000-000000000002", "0102030405", "user@unach.edu.ec",
			"123456", time.Now().UTC().Add(5*time.Minute), 1, true,
			"consumido", "10.0.0.1", time.Now().UTC().Add(-time.Minute),
		))

	req := models.CredentialChangeRequest{
		SubjectID:   "0102030405",
		NewSecret:   "NewPass1",
		BackendKind: models.BackendRadiusStudent,
	}
	err := service.Reset(context.Background(), "123456", req)
	assert.ErrorIs(t, err, ErrOtpAlreadyUsed)
	assert.Empty(t, radius.applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetBackendFailureIsTerminalForCode(t *testing.T) {
	radius := &fakeBackend{system: models.AuditSystemRadius, err: ErrSubjectNotFound}
	service, mock := newResetFixture(t, radius, &fakeBackend{system: models.AuditSystemLDAP})

	expectConsumableToken(mock, "0102030405")
	mock.ExpectExec("UPDATE otp_tokens SET usado").
		WithArgs("6f1e1b1a-0000-0000-0000-000000000002", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	req := models.CredentialChangeRequest{
		SubjectID:   "0102030405",
		NewSecret:   "NewPass1",
		BackendKind: models.BackendRadiusStudent,
	}
	err := service.Reset(context.Background(), "123456", req)
	assert.ErrorIs(t, err, ErrSubjectNotFound)
	require.Len(t, radius.applied, 1)

	// The code is burned: a second reset with it fails without reaching
	// the backend again.
	mock.ExpectQuery("SELECT (.+) FROM otp_tokens").
		WithArgs("0102030405", "123456").
		WillReturnRows(pgxmock.NewRows(otpColumns).AddRow(
			"6f1e1b1a-0000-0000-0000-000000000002", "0102030405", "user@unach.edu.ec",
			"123456", time.Now().UTC().Add(5*time.Minute), 1, true,
			"consumido", "10.0.0.1", time.Now().UTC().Add(-time.Minute),
		))
	err = service.Reset(context.Background(), "123456", req)
	assert.ErrorIs(t, err, ErrOtpAlreadyUsed)
	assert.Len(t, radius.applied, 1)
}

func TestResetRoutesLdapKind(t *testing.T) {
	ldapBackend := &fakeBackend{system: models.AuditSystemLDAP}
	service, mock := newResetFixture(t, &fakeBackend{system: models.AuditSystemRadius}, ldapBackend)

	expectConsumableToken(mock, "jdoe")
	mock.ExpectExec("UPDATE otp_tokens SET usado").
		WithArgs("6f1e1b1a-0000-0000-0000-000000000002", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	req := models.CredentialChangeRequest{
		SubjectID:   "jdoe",
		NewSecret:   "NewPass1",
		BackendKind: models.BackendLDAP,
	}
	require.NoError(t, service.Reset(context.Background(), "123456", req))
	assert.Len(t, ldapBackend.applied, 1)
}

func TestResetRejectsUnknownBackendKind(t *testing.T) {
	service, _ := newResetFixture(t, &fakeBackend{}, &fakeBackend{})
	err := service.Reset(context.Background(), "123456", models.CredentialChangeRequest{
		SubjectID:   "jdoe",
		BackendKind: models.BackendKind(99),
	})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
