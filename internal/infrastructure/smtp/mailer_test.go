package smtp

import (
	"errors"
	netsmtp "net/smtp"
	"testing"
	"time"

	"github.com/beatbookings/publish-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmail_BuildsMessage(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "mail", SMTPPort: "25", SMTPFrom: "noreply@x"}).(*mailer)
	m.now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }
	var gotAddr string
	var gotMsg []byte
	var gotAuth netsmtp.Auth
	m.send = func(addr string, a netsmtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotMsg = addr, a, msg
		assert.Equal(t, "noreply@x", from)
		assert.Equal(t, []string{"a@b.com"}, to)
		return nil
	}

	require.NoError(t, m.SendEmail("a@b.com", "Your code", "482913"))
	assert.Equal(t, "mail:25", gotAddr)
	assert.Nil(t, gotAuth)
	msg := string(gotMsg)
	assert.Contains(t, msg, "Subject: Your code\r\n")
	assert.Contains(t, msg, "Date: Mon, 04 May 2026 10:00:00 +0000\r\n")
	assert.Contains(t, msg, "\r\n\r\n482913")
}

func TestSendEmail_UsesAuthWhenConfigured(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "mail", SMTPPort: "587", SMTPUsername: "u", SMTPPassword: "p"}).(*mailer)
	var gotAuth netsmtp.Auth
	m.send = func(_ string, a netsmtp.Auth, _ string, _ []string, _ []byte) error {
		gotAuth = a
		return nil
	}

	require.NoError(t, m.SendEmail("a@b.com", "s", "b"))
	assert.NotNil(t, gotAuth)
}

func TestSendEmail_RejectsHeaderInjection(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "mail", SMTPPort: "25"}).(*mailer)
	called := false
	m.send = func(string, netsmtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	err := m.SendEmail("a@b.com\r\nBcc: victim@x", "s", "b")
	assert.Error(t, err)
	assert.False(t, called)
}

func TestSendEmail_WrapsTransportError(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "mail", SMTPPort: "25", SMTPUsername: "u", SMTPPassword: "p"}).(*mailer)
	m.send = func(string, netsmtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }

	err := m.SendEmail("a@b.com", "s", "b")
	assert.ErrorContains(t, err, "smtp send to a@b.com")
}
