package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/contactbook/backend/internal/infra/config"
)

//go:embed templates/*.html
var templateFS embed.FS

var subjects = map[string]string{
	"verify_email": "Confirm your email",
	"reset_email":  "Password reset request",
}

type SMTPMailer struct {
	dialer    *gomail.Dialer
	from      string
	fromName  string
	templates *template.Template
}

func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &SMTPMailer{
		dialer:    gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:      cfg.MailFrom,
		fromName:  cfg.MailFromName,
		templates: tmpl,
	}, nil
}

// Send renders the named template and delivers it over SMTP. Callers run
// it off the request path; an error here is only ever logged.
func (m *SMTPMailer) Send(ctx context.Context, to, templateName string, vars map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, ok := subjects[templateName]
	if !ok {
		return fmt.Errorf("unknown mail template %q", templateName)
	}

	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, templateName+".html", vars); err != nil {
		return fmt.Errorf("render %s: %w", templateName, err)
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	// gomail has no context support, so delivery runs in its own
	// goroutine and the deadline is enforced here. On timeout the
	// goroutine is abandoned; it exits once the connection errors out.
	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send %s to %s: %w", templateName, to, err)
		}
		return nil
	}
}
