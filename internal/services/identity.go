package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unach-dtic/chatbot-api/internal/apperrors"
	"github.com/unach-dtic/chatbot-api/internal/config"
	"github.com/unach-dtic/chatbot-api/internal/logging"
	"github.com/unach-dtic/chatbot-api/internal/models"
)

const (
	identityTimeout    = 10 * time.Second
	identityMaxRetries = 3
)

// Contact is the institutional mail contact resolved for a cedula.
type Contact struct {
	Email string
	Name  string
}

// IdentityGateway resolves cedulas to institutional contacts through the
// per-class identity APIs: staff via a GET lookup, students via a batch POST
// with a single-element payload. A cedula with no record resolves to
// (nil, nil); only transport and upstream failures are errors.
type IdentityGateway struct {
	cfg    config.IdentityConfig
	client *http.Client
	logger *logging.StandardLogger
}

// NewIdentityGateway builds a gateway from cfg.
func NewIdentityGateway(cfg config.IdentityConfig, logger *logging.StandardLogger) *IdentityGateway {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &IdentityGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: identityTimeout, Transport: transport},
		logger: logger.WithComponent("identity_gateway"),
	}
}

// ResolveContact looks up the contact for cedula in the API matching class.
func (g *IdentityGateway) ResolveContact(ctx context.Context, cedula string, class models.UserClass) (*Contact, error) {
	switch class {
	case models.UserClassStaff:
		return g.resolveStaff(ctx, cedula)
	case models.UserClassStudent:
		return g.resolveStudent(ctx, cedula)
	default:
		return nil, apperrors.New(apperrors.KindValidation, "Tipo de usuario inválido.")
	}
}

func (g *IdentityGateway) resolveStaff(ctx context.Context, cedula string) (*Contact, error) {
	url := fmt.Sprintf("%s/api/Servidores/Buscar/%s", strings.TrimRight(g.cfg.StaffURL, "/"), cedula)

	var records []map[string]any
	if err := g.getWithRetry(ctx, url, g.cfg.StaffToken, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return contactFromRecord(records[0]), nil
}

func (g *IdentityGateway) resolveStudent(ctx context.Context, cedula string) (*Contact, error) {
	body, err := json.Marshal(map[string][]string{"cedulas": {cedula}})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.StudentURL, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.StudentToken)

	var records []map[string]any
	if err := g.do(req, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return contactFromRecord(records[0]), nil
}

// getWithRetry performs a GET with up to identityMaxRetries retries and
// exponential backoff of 1s, 2s, 4s. Only connection failures and 5xx
// responses retry; 4xx responses are final.
func (g *IdentityGateway) getWithRetry(ctx context.Context, url, token string, out any) error {
	var lastErr error
	for attempt := 0; attempt <= identityMaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<(attempt-1)) * time.Second
			g.logger.Warn("retrying identity lookup",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return apperrors.Wrap(apperrors.KindUpstreamUnavailable, "La API institucional no está disponible.", ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return apperrors.Wrap(apperrors.KindInternal, "", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		err = g.do(req, out)
		if err == nil {
			return nil
		}
		if !retryableIdentityError(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// do executes req and decodes a JSON array response into out. 5xx responses
// map to KindUpstreamUnavailable, other non-2xx to KindInternal.
func (g *IdentityGateway) do(req *http.Request, out any) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.KindUpstreamUnavailable, "La API institucional no está disponible.", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return apperrors.Wrap(apperrors.KindUpstreamUnavailable, "La API institucional no está disponible.",
			fmt.Errorf("identity api returned %d", resp.StatusCode))
	}
	if resp.StatusCode == http.StatusNotFound {
		// Some deployments answer unknown cedulas with 404 instead of [].
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.Wrap(apperrors.KindInternal, "",
			fmt.Errorf("identity api returned %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.KindUpstreamUnavailable, "La API institucional no está disponible.", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "", fmt.Errorf("decoding identity response: %w", err))
	}
	return nil
}

func retryableIdentityError(err error) bool {
	return apperrors.KindOf(err) == apperrors.KindUpstreamUnavailable
}

// contactFromRecord extracts the contact from one identity API record.
// Email fields are tried in a fixed order; the first non-blank wins.
func contactFromRecord(record map[string]any) *Contact {
	contact := &Contact{}
	for _, key := range []string{"correoElectronico", "correoElectronicoTmp"} {
		if v, ok := record[key].(string); ok && strings.TrimSpace(v) != "" {
			contact.Email = strings.TrimSpace(v)
			break
		}
	}
	for _, key := range []string{"nombres", "nombreCompleto"} {
		if v, ok := record[key].(string); ok && strings.TrimSpace(v) != "" {
			contact.Name = strings.TrimSpace(v)
			break
		}
	}
	if contact.Email == "" {
		return nil
	}
	return contact
}
