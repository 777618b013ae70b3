package models

import (
	"fmt"
	"strings"
	"time"
)

// AuditSystem names the directory a password change was applied to.
type AuditSystem string

const (
	AuditSystemRadius AuditSystem = "radius"
	AuditSystemLDAP   AuditSystem = "ldap"
)

// AuditRecord is one append-only entry in the password change log. Written
// after every backend apply attempt, success or failure.
type AuditRecord struct {
	ID        string      `json:"id" db:"id"`
	Subject   string      `json:"usuario" db:"usuario"`
	System    AuditSystem `json:"sistema" db:"sistema"`
	OriginIP  string      `json:"ip_origen" db:"ip_origen"`
	Timestamp time.Time   `json:"fecha_hora" db:"fecha_hora"`
	Note      string      `json:"observacion" db:"observacion"`
}

// BackendKind is the closed set of credential backends a reset can target.
type BackendKind int

const (
	BackendRadiusStudent BackendKind = iota
	BackendRadiusStaff
	BackendLDAP
)

func (k BackendKind) String() string {
	switch k {
	case BackendRadiusStudent:
		return "radius-student"
	case BackendRadiusStaff:
		return "radius-staff"
	case BackendLDAP:
		return "ldap"
	default:
		return fmt.Sprintf("backend(%d)", int(k))
	}
}

// ParseRadiusGroup maps the wire-level grupo name to a RADIUS backend kind.
func ParseRadiusGroup(grupo string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(grupo)) {
	case "estudiantes":
		return BackendRadiusStudent, nil
	case "docentes", "servidores":
		return BackendRadiusStaff, nil
	default:
		return 0, fmt.Errorf("unknown radius group %q", grupo)
	}
}

// CredentialChangeRequest is the ephemeral value object handed to the reset
// orchestrator. Never persisted.
type CredentialChangeRequest struct {
	SubjectID   string
	NewSecret   string
	BackendKind BackendKind
	OriginIP    string
}
