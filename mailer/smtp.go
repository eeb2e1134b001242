package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/jordan-wright/email"

	"github.com/theidealshukla/ColdMailBot-api/models"
)

// SMTP sends campaign messages through an SMTP server using the credentials
// supplied with the request.
type SMTP struct {
	creds       models.Credentials
	dialTimeout time.Duration
	helloName   string
}

// NewSMTP builds a transport for one campaign's credentials. Host and port
// must already be resolved (request override or config default).
func NewSMTP(creds models.Credentials) *SMTP {
	return &SMTP{
		creds:       creds,
		dialTimeout: 30 * time.Second,
		helloName:   "localhost",
	}
}

func (s *SMTP) addr() string {
	return net.JoinHostPort(s.creds.Host, strconv.Itoa(s.creds.Port))
}

func (s *SMTP) auth() smtp.Auth {
	return smtp.PlainAuth("", s.creds.SenderEmail, s.creds.AppPassword, s.creds.Host)
}

// Verify opens a session, negotiates STARTTLS and authenticates, then quits.
// It distinguishes credential rejections from connectivity failures so the
// campaign can be aborted with the right category before any send happens.
func (s *SMTP) Verify(ctx context.Context) error {
	dialer := net.Dialer{Timeout: s.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr())
	if err != nil {
		return models.WrapConnectivity(fmt.Errorf("dial %s: %w", s.addr(), err))
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.creds.Host)
	if err != nil {
		return models.WrapConnectivity(fmt.Errorf("smtp handshake: %w", err))
	}
	defer client.Close()

	if err := client.Hello(s.helloName); err != nil {
		return models.WrapConnectivity(fmt.Errorf("hello: %w", err))
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		cfg := &tls.Config{ServerName: s.creds.Host, MinVersion: tls.VersionTLS12}
		if err := client.StartTLS(cfg); err != nil {
			return models.WrapConnectivity(fmt.Errorf("starttls: %w", err))
		}
	}

	if ok, _ := client.Extension("AUTH"); ok {
		if err := client.Auth(s.auth()); err != nil {
			return models.WrapAuthentication(err)
		}
	}

	_ = client.Quit()
	return nil
}

// Send delivers one rendered message, attaching the shared file when present.
func (s *SMTP) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return models.WrapDelivery(err)
	}

	e := email.NewEmail()
	e.From = msg.From
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)
	if msg.HTML != "" {
		e.HTML = []byte(msg.HTML)
	}

	if msg.AttachmentPath != "" {
		if _, err := e.AttachFile(msg.AttachmentPath); err != nil {
			return models.WrapDelivery(fmt.Errorf("attach %s: %w", msg.AttachmentPath, err))
		}
	}

	if err := e.Send(s.addr(), s.auth()); err != nil {
		return classifySendError(err)
	}
	return nil
}

func classifySendError(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && (tpErr.Code == 530 || tpErr.Code == 534 || tpErr.Code == 535) {
		return models.WrapAuthentication(err)
	}
	return models.WrapDelivery(err)
}
