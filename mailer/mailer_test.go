package mailer

import (
	"context"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theidealshukla/ColdMailBot-api/models"
)

func TestHTMLVariant(t *testing.T) {
	assert.Equal(t, "", HTMLVariant(""))

	got := HTMLVariant("Hello <World>\nLine & two")
	assert.Equal(t, "Hello &lt;World&gt;<br>\nLine &amp; two", got)
}

func TestSMTPAddr(t *testing.T) {
	s := NewSMTP(models.Credentials{
		SenderEmail: "jane@example.com",
		AppPassword: "secret",
		Host:        "smtp.gmail.com",
		Port:        587,
	})
	assert.Equal(t, "smtp.gmail.com:587", s.addr())
}

func TestClassifySendError(t *testing.T) {
	authErr := classifySendError(&textproto.Error{Code: 535, Msg: "bad credentials"})
	assert.ErrorIs(t, authErr, models.ErrAuthentication)

	rejection := classifySendError(&textproto.Error{Code: 550, Msg: "mailbox unavailable"})
	assert.ErrorIs(t, rejection, models.ErrDelivery)
}

func TestScriptBuildsCommand(t *testing.T) {
	creds := models.Credentials{
		SenderEmail: "jane@example.com",
		AppPassword: "secret",
		Host:        "smtp.gmail.com",
		Port:        587,
	}
	s := NewScript("/usr/local/bin/sendmail.py", creds)

	cmd := s.build(context.Background(), "--to", "sam@acme.com", "--subject", "Hi")
	assert.Equal(t, []string{"/usr/local/bin/sendmail.py", "--to", "sam@acme.com", "--subject", "Hi"}, cmd.Args)
	assert.Contains(t, cmd.Env, "SENDER_EMAIL=jane@example.com")
	assert.Contains(t, cmd.Env, "APP_PASSWORD=secret")
	assert.Contains(t, cmd.Env, "SMTP_HOST=smtp.gmail.com")
	assert.Contains(t, cmd.Env, "SMTP_PORT=587")
}

func TestScriptSendReportsStderr(t *testing.T) {
	// "false" exits non-zero without output; the error falls back to the
	// exec failure text and is classified as a delivery error.
	s := NewScript("false", models.Credentials{SenderEmail: "jane@example.com"})

	err := s.Send(context.Background(), &Message{To: "sam@acme.com", Subject: "Hi", Text: "body"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDelivery)
}

func TestScriptSendSuccess(t *testing.T) {
	s := NewScript("true", models.Credentials{SenderEmail: "jane@example.com"})

	err := s.Send(context.Background(), &Message{To: "sam@acme.com", Subject: "Hi", Text: "body"})
	assert.NoError(t, err)
}
