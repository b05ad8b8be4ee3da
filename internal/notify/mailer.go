package notify

import (
	"context"
	"errors"

	gomail "gopkg.in/gomail.v2"
)

// SMTPConfig mirrors what the mail relay wants: server, port, credentials,
// sender. Password may be empty for an open relay.
type SMTPConfig struct {
	Server   string
	Port     int
	User     string
	Password string
	From     string
}

// Mailer delivers down alerts over SMTP with implicit TLS.
type Mailer struct {
	cfg SMTPConfig
	to  string

	// send is swappable in tests; defaults to gomail DialAndSend.
	send func(m *gomail.Message) error
}

// NewMailer returns nil when no recipient or no relay is configured;
// Multi skips nil notifiers.
func NewMailer(cfg SMTPConfig, to string) *Mailer {
	if to == "" || cfg.Server == "" {
		return nil
	}
	d := gomail.NewDialer(cfg.Server, cfg.Port, cfg.User, cfg.Password)
	d.SSL = true
	return &Mailer{cfg: cfg, to: to, send: func(m *gomail.Message) error {
		return d.DialAndSend(m)
	}}
}

func (ml *Mailer) Send(ctx context.Context, title, text string) error {
	if ml == nil {
		return errors.New("mailer disabled")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", ml.cfg.From)
	m.SetHeader("To", ml.to)
	m.SetHeader("Subject", title)
	m.SetBody("text/plain", text)
	return ml.send(m)
}
