package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/smtp"
	"strings"

	"github.com/samber/oops"

	"github.com/redmonkez12/accounts-api/internal/config"
	"github.com/redmonkez12/accounts-api/internal/logging"
)

// sendFunc has the signature of smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service renders HTML templates and delivers them over SMTP.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	templates    *template.Template
	send         sendFunc
}

// NewService parses every *.html file under email/ in templateFS. A
// template is addressed by its file name without the extension.
func NewService(cfg config.EmailConfig, templateFS fs.FS) (*Service, error) {
	tmpl, err := template.ParseFS(templateFS, "email/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	return &Service{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUser:     cfg.SMTPUser,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    cfg.From,
		templates:    tmpl,
		send:         smtp.SendMail,
	}, nil
}

// Send renders templateName with vars and mails it to a single recipient.
func (s *Service) Send(ctx context.Context, to, subject, templateName string, vars map[string]string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := s.Render(templateName, vars)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.sendEmail(to, subject, body); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("template", templateName).
			Wrap(err)
	}

	logger.Info("email sent", "template", templateName)
	return nil
}

// Render executes a named template.
func (s *Service) Render(templateName string, vars map[string]string) (string, error) {
	t := s.templates.Lookup(templateName + ".html")
	if t == nil {
		return "", oops.Code("MAIL_TEMPLATE_UNKNOWN").Errorf("unknown email template %q", templateName)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", oops.Code("MAIL_TEMPLATE_FAILED").
			With("template", templateName).
			Wrap(err)
	}

	return buf.String(), nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	var auth smtp.Auth
	if s.smtpUser != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		headerValue(s.fromEmail), headerValue(to), headerValue(subject), body,
	))

	addr := net.JoinHostPort(s.smtpHost, s.smtpPort)
	return s.send(addr, auth, s.fromEmail, []string{to}, msg)
}

// headerValue drops line breaks so a value cannot start a new header.
func headerValue(v string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}
