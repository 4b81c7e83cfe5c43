package util

import (
	"net/smtp"
	"testing"

	"github.com/grocerly/grocerly-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserAgent(t *testing.T) {
	chrome := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	iphone := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

	desktop := ParseUserAgent(chrome)
	assert.Contains(t, desktop.Browser, "Chrome")
	assert.False(t, desktop.Mobile)
	assert.Contains(t, desktop.Summary(), "desktop")

	mobile := ParseUserAgent(iphone)
	assert.True(t, mobile.Mobile)
	assert.Contains(t, mobile.Summary(), "mobile")

	empty := ParseUserAgent("  ")
	assert.Equal(t, "unknown", empty.Browser)
	assert.Equal(t, "unknown", empty.OS)
}

func TestMailer_DevModeSkipsSMTP(t *testing.T) {
	m := NewMailer(config.SMTPConfig{})
	assert.NoError(t, m.Send("owner@example.com", "Hello", "<p>hi</p>"))
}

func TestMailer_SendBuildsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	m := &smtpMailer{
		cfg: config.SMTPConfig{Host: "smtp.example.com", Port: "587", From: "no-reply@grocerly.app"},
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			return nil
		},
	}

	require.NoError(t, m.Send("owner@example.com", "Decision\r\nBcc: x@y.z", "<p>approved</p>"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "no-reply@grocerly.app", gotFrom)
	assert.Equal(t, []string{"owner@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Decision  Bcc: x@y.z\r\n")
	assert.Contains(t, string(gotMsg), "<p>approved</p>")
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken(16)
	require.NoError(t, err)
	b, err := GenerateToken(16)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
