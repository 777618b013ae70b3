package services

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unach-dtic/chatbot-api/internal/apperrors"
	"github.com/unach-dtic/chatbot-api/internal/config"
	"github.com/unach-dtic/chatbot-api/internal/logging"
)

func newMailFixture(send sendMailFunc) *MailGateway {
	gw := NewMailGateway(config.SMTPConfig{
		Host:     "smtp.unach.edu.ec",
		Port:     587,
		Username: "chatbot@unach.edu.ec",
		Password: "secret",
	}, logging.NewStandardLogger("error", "test"))
	gw.sendMail = send
	return gw
}

func TestSendOtpBuildsMultipartMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	gw := newMailFixture(func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	})

	require.NoError(t, gw.SendOtp(context.Background(), "user@unach.edu.ec", "042137"))

	assert.Equal(t, "smtp.unach.edu.ec:587", gotAddr)
	assert.Equal(t, "chatbot@unach.edu.ec", gotFrom)
	assert.Equal(t, []string{"user@unach.edu.ec"}, gotTo)

	body := string(gotMsg)
	assert.Contains(t, body, "Subject: "+otpMailSubject)
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "text/plain")
	assert.Contains(t, body, "text/html")
	// The code appears in both bodies.
	assert.GreaterOrEqual(t, strings.Count(body, "042137"), 2)
}

func TestSendOtpDeliveryFailure(t *testing.T) {
	gw := newMailFixture(func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("smtp: 535 auth failed")
	})

	err := gw.SendOtp(context.Background(), "user@unach.edu.ec", "042137")
	assert.Equal(t, apperrors.KindUpstreamUnavailable, apperrors.KindOf(err))
}

func TestSendOtpHonorsContextCancellation(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	gw := newMailFixture(func(string, smtp.Auth, string, []string, []byte) error {
		<-block
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := gw.SendOtp(ctx, "user@unach.edu.ec", "042137")
	assert.Equal(t, apperrors.KindUpstreamUnavailable, apperrors.KindOf(err))
}

func TestSendOtpBoundsHungDelivery(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	gw := newMailFixture(func(string, smtp.Auth, string, []string, []byte) error {
		<-block
		return nil
	})
	gw.timeout = 50 * time.Millisecond

	// A plain Background context carries no deadline; the gateway's own
	// bound must cut the wait.
	start := time.Now()
	err := gw.SendOtp(context.Background(), "user@unach.edu.ec", "042137")
	assert.Equal(t, apperrors.KindUpstreamUnavailable, apperrors.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestMailGatewayDefaultTimeout(t *testing.T) {
	gw := newMailFixture(nil)
	assert.Equal(t, mailTimeout, gw.timeout)
}

func TestMailFromPrefersConfiguredSender(t *testing.T) {
	gw := newMailFixture(nil)
	assert.Equal(t, "chatbot@unach.edu.ec", gw.from())
	gw.cfg.From = "no-reply@unach.edu.ec"
	assert.Equal(t, "no-reply@unach.edu.ec", gw.from())
}
