// Package mailer delivers transactional email over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	zlog "github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

type Config struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

type SMTP struct {
	cfg  Config
	send func(m ...*gomail.Message) error
}

// New returns a mailer. Without a host, messages are logged and dropped,
// which is what development setups want.
func New(cfg Config) *SMTP {
	m := &SMTP{cfg: cfg}
	if cfg.Host != "" {
		d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
		m.send = d.DialAndSend
	}
	return m
}

var resetTmpl = template.Must(template.New("reset").Parse(`<p>Hi {{.Name}},</p>
<p>We received a request to reset your password. The link below is valid for one hour.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>If you did not ask for this you can ignore this email.</p>`))

func (s *SMTP) SendPasswordReset(ctx context.Context, to, name, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := s.passwordReset(to, name, link)
	if err != nil {
		return err
	}
	if s.send == nil {
		zlog.Warn().Str("to", to).Msg("SMTP not configured, password reset email skipped")
		return nil
	}
	if err := s.send(msg); err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	return nil
}

func (s *SMTP) passwordReset(to, name, link string) (*gomail.Message, error) {
	if name == "" {
		name = "there"
	}
	var html bytes.Buffer
	if err := resetTmpl.Execute(&html, struct{ Name, Link string }{name, link}); err != nil {
		return nil, err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetAddressHeader("To", to, name)
	m.SetHeader("Subject", "Reset your password")
	m.SetBody("text/plain", "Hi "+name+",\n\nReset your password within one hour using this link:\n"+link+"\n")
	m.AddAlternative("text/html", html.String())
	return m, nil
}
