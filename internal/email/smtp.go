package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"newsbrief/internal/logger"
)

// SMTPSender delivers rendered newsletters over SMTP with STARTTLS.
type SMTPSender struct {
	server   string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender creates a sender. from falls back to username when empty.
func NewSMTPSender(server string, port int, username, password, from string) *SMTPSender {
	if from == "" {
		from = username
	}
	return &SMTPSender{
		server:   server,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send delivers an HTML body to the recipient. It returns an error on any
// delivery failure; callers decide how a failure affects their run.
func (s *SMTPSender) Send(recipient, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", s.server, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.server)

	var msg strings.Builder
	msg.WriteString("From: " + s.from + "\r\n")
	msg.WriteString("To: " + recipient + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(addr, auth, s.from, []string{recipient}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send newsletter to %s: %w", recipient, err)
	}

	logger.Info("newsletter delivered", "recipient", recipient, "subject", subject)
	return nil
}
