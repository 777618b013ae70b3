package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unach-dtic/chatbot-api/internal/apperrors"
	"github.com/unach-dtic/chatbot-api/internal/config"
	"github.com/unach-dtic/chatbot-api/internal/logging"
	"github.com/unach-dtic/chatbot-api/internal/utils"
)

const otpMailSubject = "Código de verificación para cambio de contraseña – UNACH"

const otpMailPlain = `Estimado/a usuario/a,

Su código OTP es: %s

Este código expira en 10 minutos.

Atentamente,
Asistente Virtual UNACH
`

const otpMailHTML = `<html>
  <body style="font-family: Arial, sans-serif; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px; background: #ffffff; border: 1px solid #e0e0e0; border-radius: 8px;">
      <div style="text-align: center; margin-bottom: 20px;">
        <img src="https://dtic.unach.edu.ec/wp-content/uploads/2025/05/unach.png" alt="Logo UNACH" style="width: 80px; height: auto;">
        <h2 style="color: #004080; margin-top: 10px;">Asistente Virtual UNACH</h2>
      </div>
      <p>Estimado/a usuario/a,</p>
      <p>Hemos recibido una solicitud para verificación de identidad mediante un código OTP.</p>
      <p style="font-size: 18px; font-weight: bold; color: #004080; text-align: center;">
        🔐 Su código de verificación es:<br>
        <span style="display: inline-block; margin-top: 10px; background: #f0f0f0; padding: 10px 20px; border-radius: 5px; font-size: 24px; letter-spacing: 2px;">
          %s
        </span>
      </p>
      <p style="text-align: center; color: #888; font-size: 13px;">Este código es válido por 10 minutos.</p>
      <p>Por razones de seguridad, <strong>no comparta este código</strong> con nadie.</p>
      <p>Si usted no solicitó este código, puede ignorar este mensaje.</p>
      <br>
      <p style="font-size: 14px; color: #555;">
        Atentamente,<br>
        <strong>Asistente Virtual UNACH</strong><br>
        Dirección de Tecnologías de la Información y Comunicación<br>
        Universidad Nacional de Chimborazo
      </p>
    </div>
  </body>
</html>
`

// sendMailFunc matches smtp.SendMail; swapped in tests.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// MailGateway delivers OTP codes by SMTP as a multipart/alternative message
// with plain-text and HTML bodies.
type MailGateway struct {
	cfg      config.SMTPConfig
	logger   *logging.StandardLogger
	sendMail sendMailFunc
	timeout  time.Duration
}

// NewMailGateway builds a gateway from cfg.
func NewMailGateway(cfg config.SMTPConfig, logger *logging.StandardLogger) *MailGateway {
	return &MailGateway{
		cfg:      cfg,
		logger:   logger.WithComponent("mail_gateway"),
		sendMail: smtp.SendMail,
		timeout:  mailTimeout,
	}
}

// mailTimeout bounds one SMTP conversation. Request contexts carry no
// deadline of their own, so the bound lives here.
const mailTimeout = 10 * time.Second

// SendOtp delivers code to recipient. The send runs in its own goroutine and
// the wait is capped at mailTimeout even when ctx has no deadline, since
// net/smtp itself is not context-aware.
func (g *MailGateway) SendOtp(ctx context.Context, recipient, code string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	msg := g.buildOtpMessage(recipient, code)
	addr := fmt.Sprintf("%s:%d", g.cfg.Host, g.cfg.Port)
	auth := smtp.PlainAuth("", g.cfg.Username, g.cfg.Password, g.cfg.Host)

	done := make(chan error, 1)
	go func() {
		done <- g.sendMail(addr, auth, g.from(), []string{recipient}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			g.logger.WithError(err).Error("otp mail delivery failed",
				zap.String("recipient", utils.MaskEmail(recipient)))
			return apperrors.Wrap(apperrors.KindUpstreamUnavailable,
				"No se pudo enviar el correo con el código.", err)
		}
		g.logger.Info("otp mail sent", zap.String("recipient", utils.MaskEmail(recipient)))
		return nil
	case <-ctx.Done():
		return apperrors.Wrap(apperrors.KindUpstreamUnavailable,
			"No se pudo enviar el correo con el código.", ctx.Err())
	}
}

func (g *MailGateway) from() string {
	if g.cfg.From != "" {
		return g.cfg.From
	}
	return g.cfg.Username
}

func (g *MailGateway) buildOtpMessage(recipient, code string) []byte {
	const boundary = "unach-otp-boundary"
	var sb strings.Builder
	sb.WriteString("From: " + g.from() + "\r\n")
	sb.WriteString("To: " + recipient + "\r\n")
	sb.WriteString("Subject: " + otpMailSubject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: multipart/alternative; boundary=" + boundary + "\r\n")
	sb.WriteString("\r\n")

	sb.WriteString("--" + boundary + "\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(fmt.Sprintf(otpMailPlain, code))
	sb.WriteString("\r\n")

	sb.WriteString("--" + boundary + "\r\n")
	sb.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	sb.WriteString(fmt.Sprintf(otpMailHTML, code))
	sb.WriteString("\r\n")

	sb.WriteString("--" + boundary + "--\r\n")
	return []byte(sb.String())
}
