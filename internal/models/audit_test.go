package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRadiusGroup(t *testing.T) {
	tests := []struct {
		grupo string
		want  BackendKind
	}{
		{"estudiantes", BackendRadiusStudent},
		{"Estudiantes", BackendRadiusStudent},
		{"docentes", BackendRadiusStaff},
		{"servidores", BackendRadiusStaff},
		{"  DOCENTES  ", BackendRadiusStaff},
	}
	for _, tt := range tests {
		t.Run(tt.grupo, func(t *testing.T) {
			got, err := ParseRadiusGroup(tt.grupo)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRadiusGroup_Unknown(t *testing.T) {
	_, err := ParseRadiusGroup("invitados")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invitados")
}

func TestOtpToken_Expired(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	token := &OtpToken{IssuedAt: issued, ExpiresAt: issued.Add(10 * time.Minute)}

	assert.False(t, token.Expired(issued.Add(9*time.Minute+59*time.Second)))
	assert.False(t, token.Expired(issued.Add(10*time.Minute)))
	assert.True(t, token.Expired(issued.Add(10*time.Minute+time.Second)))
}

func TestUserClass_Valid(t *testing.T) {
	assert.True(t, UserClassStudent.Valid())
	assert.True(t, UserClassStaff.Valid())
	assert.False(t, UserClass("docente").Valid())
}
