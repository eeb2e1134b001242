package mailer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/theidealshukla/ColdMailBot-api/models"
)

// Script delegates delivery to an external command, one invocation per
// message. The command receives recipient, subject and attachment as flags,
// the rendered body on stdin and the credentials through its environment, and
// signals failure with a non-zero exit.
type Script struct {
	command string
	creds   models.Credentials
}

// NewScript builds a transport around the given command path.
func NewScript(command string, creds models.Credentials) *Script {
	return &Script{command: command, creds: creds}
}

// Verify runs the command with --check so it can validate the credentials
// before the campaign starts.
func (s *Script) Verify(ctx context.Context) error {
	cmd := s.build(ctx, "--check")
	if out, err := cmd.CombinedOutput(); err != nil {
		return models.WrapAuthentication(fmt.Errorf("%s --check: %v: %s", s.command, err, firstLine(out)))
	}
	return nil
}

// Send invokes the command for a single message.
func (s *Script) Send(ctx context.Context, msg *Message) error {
	args := []string{"--to", msg.To, "--subject", msg.Subject}
	if msg.AttachmentPath != "" {
		args = append(args, "--attachment", msg.AttachmentPath)
	}

	cmd := s.build(ctx, args...)
	cmd.Stdin = strings.NewReader(msg.Text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := firstLine(stderr.Bytes())
		if detail == "" {
			detail = err.Error()
		}
		return models.WrapDelivery(fmt.Errorf("%s: %s", s.command, detail))
	}
	return nil
}

func (s *Script) build(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, s.command, args...)
	cmd.Env = append(cmd.Environ(),
		"SENDER_EMAIL="+s.creds.SenderEmail,
		"APP_PASSWORD="+s.creds.AppPassword,
		"SMTP_HOST="+s.creds.Host,
		fmt.Sprintf("SMTP_PORT=%d", s.creds.Port),
	)
	return cmd
}

func firstLine(out []byte) string {
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line)
}
