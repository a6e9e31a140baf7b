package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"grievance-portal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailerSend(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.org", Port: 2525, Sender: "noreply@example.org"})

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		assert.Nil(t, a)
		return nil
	}

	err := m.Send(context.Background(), []string{"a@example.org", "b@example.org"}, "New Grievance: Pothole", "<p>hi</p>")
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.org:2525", gotAddr)
	assert.Equal(t, []string{"a@example.org", "b@example.org"}, gotTo)
	body := string(gotMsg)
	assert.Contains(t, body, "To: a@example.org, b@example.org\r\n")
	assert.Contains(t, body, "Content-Type: text/html")
	assert.True(t, strings.HasSuffix(body, "\r\n\r\n<p>hi</p>"))
}

func TestSMTPMailerErrors(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "h", Port: 25, Sender: "s@example.org", Username: "u", Password: "p"})
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("dial tcp: refused") }

	assert.ErrorIs(t, m.Send(context.Background(), nil, "s", "b"), ErrNoRecipients)
	assert.ErrorContains(t, m.Send(context.Background(), []string{"x@example.org"}, "s", "b"), "failed to send email")
}

func TestNewFallsBackToLogMailerInDevelopment(t *testing.T) {
	_, isLog := New(&config.Config{Env: config.EnvDevelopment}).(LogMailer)
	assert.True(t, isLog)

	_, isSMTP := New(&config.Config{Env: config.EnvProduction}).(*SMTPMailer)
	assert.True(t, isSMTP)
}
