package mailer

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/lebbnb/apiserver/config"
)

// Mailer delivers plain-text mail over SMTP. It is used by the notifier
// worker, never directly by request handlers.
type Mailer struct {
	addr     string
	host     string
	from     string
	username string
	password string
}

// New constructs a Mailer from config.
func New(cfg config.SMTPConfig) (*Mailer, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("smtp from address is required")
	}
	return &Mailer{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		host:     cfg.Host,
		from:     cfg.From,
		username: cfg.Username,
		password: cfg.Password,
	}, nil
}

// Send delivers a single message to the given recipient.
func (m *Mailer) Send(to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return errors.New("recipient is required")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", sanitizeHeader(subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(msg.String()))
}

// sanitizeHeader strips CR/LF so user-supplied text cannot inject headers.
func sanitizeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	return strings.ReplaceAll(value, "\n", " ")
}
