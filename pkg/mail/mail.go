package mail

import (
	"context"

	"github.com/wneessen/go-mail"
)

// Sender delivers a single plain-text message. Implementations report
// delivery failure through the returned error; callers decide whether that
// failure is fatal.
type Sender interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Config struct {
	Host     string `split_words:"true" required:"true"`
	Port     int    `split_words:"true" default:"587"`
	Username string `split_words:"true" required:"true"`
	Password string `split_words:"true" required:"true"`
}

// SMTPSender sends mail over SMTP with STARTTLS and plain auth.
type SMTPSender struct {
	client *mail.Client
}

func (c *Config) New() (*SMTPSender, error) {
	client, err := mail.NewClient(c.Host,
		mail.WithPort(c.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(c.Username),
		mail.WithPassword(c.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, err
	}
	return &SMTPSender{client: client}, nil
}

func (s *SMTPSender) Send(ctx context.Context, from, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return s.client.DialAndSendWithContext(ctx, msg)
}

var _ Sender = (*SMTPSender)(nil)
