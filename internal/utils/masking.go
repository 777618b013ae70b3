// Package utils holds small helpers shared across packages.
package utils

import "strings"

const maskChar = "*"

// MaskCedula hides the middle digits of a national ID so log lines stay
// correlatable without exposing the full number. Short or empty values are
// fully masked.
func MaskCedula(cedula string) string {
	cedula = strings.TrimSpace(cedula)
	if len(cedula) < 6 {
		return strings.Repeat(maskChar, len(cedula))
	}
	return cedula[:2] + strings.Repeat(maskChar, len(cedula)-4) + cedula[len(cedula)-2:]
}

// MaskEmail hides the local part of an address, keeping its first character
// and the full domain.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return strings.Repeat(maskChar, len(email))
	}
	local, domain := email[:at], email[at:]
	if len(local) == 1 {
		return maskChar + domain
	}
	return local[:1] + strings.Repeat(maskChar, len(local)-1) + domain
}
