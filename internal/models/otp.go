package models

import "time"

// OtpToken is one issued verification code. Rows are append-only: tokens are
// mutated (attempts, usado, comentario) but never deleted, so the table doubles
// as an audit trail of every verification attempt.
type OtpToken struct {
	ID        string    `json:"id" db:"id"`
	Cedula    string    `json:"cedula" db:"cedula"`
	Correo    string    `json:"-" db:"correo"`
	Codigo    string    `json:"-" db:"codigo_otp"`
	IssuedAt  time.Time `json:"issued_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expiracion"`
	Attempts  int       `json:"attempts" db:"intentos"`
	Used      bool      `json:"used" db:"usado"`
	Comment   string    `json:"-" db:"comentario"`
	OriginIP  string    `json:"-" db:"ip_origen"`
}

// Expired reports whether the token is past its hard expiry boundary.
func (t *OtpToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// UserClass identifies which identity API session resolves a cedula.
type UserClass string

const (
	UserClassStudent UserClass = "estudiante"
	UserClassStaff   UserClass = "servidor"
)

// Valid reports whether the class is one of the known values.
func (c UserClass) Valid() bool {
	return c == UserClassStudent || c == UserClassStaff
}

// SendOtpRequest is the /enviar_otp payload.
type SendOtpRequest struct {
	Cedula   string `json:"cedula" binding:"required"`
	UserType string `json:"user_type" binding:"required,oneof=estudiante servidor"`
	Servicio string `json:"servicio" binding:"required,oneof=wifi zoom"`
}

// VerifyOtpRequest is the /verificar_otp payload.
type VerifyOtpRequest struct {
	Cedula string `json:"cedula" binding:"required"`
	Otp    string `json:"otp" binding:"required"`
}

// CheckAccountRequest is the /check_account payload.
type CheckAccountRequest struct {
	Cedula   string `json:"cedula" binding:"required"`
	UserType string `json:"user_type" binding:"required,oneof=estudiante servidor"`
	Servicio string `json:"servicio" binding:"required,oneof=wifi zoom"`
}

// ResetRadiusRequest is the /reset_radius_password payload. ConfirmData
// carries the OTP the user received by mail.
type ResetRadiusRequest struct {
	Username    string `json:"username" binding:"required"`
	ConfirmData string `json:"confirm_data" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
	Grupo       string `json:"grupo" binding:"required"`
}

// ResetZoomRequest is the /reset_zoom_password payload.
type ResetZoomRequest struct {
	Username    string `json:"username" binding:"required"`
	ConfirmData string `json:"confirm_data" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// StatusResponse is the common {status, message} success shape.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
