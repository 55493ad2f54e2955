package mailer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	msg, err := newMessage(`"Ben Bank" <no-reply@benbank.local>`, "ada@example.com", "Welcome", "Hi Ada,\nyour code is <1234>")
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "no-reply@benbank.local")
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "Subject: Welcome")
	assert.Contains(t, out, "multipart/alternative")
	assert.Contains(t, out, "text/plain")
	assert.Contains(t, out, "text/html")
	assert.Contains(t, out, "&lt;1234&gt;")
}

func TestNewMessage_RejectsBadAddresses(t *testing.T) {
	_, err := newMessage("not an address", "ada@example.com", "s", "b")
	assert.Error(t, err)

	_, err = newMessage("bank@example.com", "also not an address", "s", "b")
	assert.Error(t, err)
}

func TestSMTPMailer_Send(t *testing.T) {
	t.Run("bad sender", func(t *testing.T) {
		m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: "465", From: "not an address"})
		assert.Error(t, m.Send(context.Background(), "ada@example.com", "s", "b"))
	})

	t.Run("bad port", func(t *testing.T) {
		m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: "smtps", From: "bank@example.com"})
		err := m.Send(context.Background(), "ada@example.com", "s", "b")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid smtp port")
	})
}

func TestLogMailer(t *testing.T) {
	assert.NoError(t, LogMailer{}.Send(context.Background(), "ada@example.com", "Welcome", "body"))
}
