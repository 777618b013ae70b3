package services

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"

	"github.com/unach-dtic/chatbot-api/internal/config"
	"github.com/unach-dtic/chatbot-api/internal/logging"
	"github.com/unach-dtic/chatbot-api/internal/models"
)

const ldapDialTimeout = 10 * time.Second

// ldapConn is the slice of *ldap.Conn the backend uses. Tests substitute a
// fake; production dials the directory per apply.
type ldapConn interface {
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Modify(req *ldap.ModifyRequest) error
	Close() error
}

// LdapBackend replaces the userPassword attribute of a directory entry. The
// entry is located by a cn search under the configured base DN; the
// connection is dialed, bound, and released per apply.
type LdapBackend struct {
	cfg    config.LDAPConfig
	audit  *AuditLog
	logger *logging.StandardLogger
	dial   func(ctx context.Context) (ldapConn, error)
}

// NewLdapBackend builds a backend over the configured directory.
func NewLdapBackend(cfg config.LDAPConfig, audit *AuditLog, logger *logging.StandardLogger) *LdapBackend {
	b := &LdapBackend{cfg: cfg, audit: audit, logger: logger.WithComponent("ldap_backend")}
	b.dial = b.dialAndBind
	return b
}

// System identifies this backend in audit records.
func (b *LdapBackend) System() models.AuditSystem { return models.AuditSystemLDAP }

func (b *LdapBackend) dialAndBind(ctx context.Context) (ldapConn, error) {
	dialer := &net.Dialer{Timeout: ldapDialTimeout}
	conn, err := ldap.DialURL(
		fmt.Sprintf("ldap://%s:%d", b.cfg.Host, b.cfg.Port),
		ldap.DialWithDialer(dialer),
	)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetTimeout(time.Until(deadline))
	}
	if err := conn.Bind(b.cfg.BindUser, b.cfg.BindPass); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// Apply locates the subject's entry and replaces its userPassword attribute.
func (b *LdapBackend) Apply(ctx context.Context, req models.CredentialChangeRequest) error {
	conn, err := b.dial(ctx)
	if err != nil {
		b.recordOutcome(ctx, req, fmt.Sprintf("Error conectando a LDAP: %v", err))
		return backendUnavailable(err)
	}
	defer func() { _ = conn.Close() }()

	searchReq := ldap.NewSearchRequest(
		b.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		fmt.Sprintf("(cn=%s)", ldap.EscapeFilter(req.SubjectID)),
		[]string{"dn"},
		nil,
	)
	result, err := conn.Search(searchReq)
	if err != nil {
		b.recordOutcome(ctx, req, fmt.Sprintf("Error buscando en LDAP: %v", err))
		return backendUnavailable(err)
	}
	if len(result.Entries) == 0 {
		b.recordOutcome(ctx, req, "Usuario no encontrado en LDAP")
		return ErrSubjectNotFound
	}

	modifyReq := ldap.NewModifyRequest(result.Entries[0].DN, nil)
	modifyReq.Replace("userPassword", []string{req.NewSecret})
	if err := conn.Modify(modifyReq); err != nil {
		b.recordOutcome(ctx, req, fmt.Sprintf("LDAP rechazó el cambio: %v", err))
		return backendRejected(err.Error())
	}

	b.logger.Info("ldap password updated", zap.String("usuario", req.SubjectID))
	b.recordOutcome(ctx, req, "Cambio de contraseña exitoso")
	return nil
}

func (b *LdapBackend) recordOutcome(ctx context.Context, req models.CredentialChangeRequest, note string) {
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
