package service

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailConfig configures the SMTP relay used for transactional mail.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailService delivers transactional notification mail.
type EmailService interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}

type emailService struct {
	cfg EmailConfig
}

func NewEmailService(cfg EmailConfig) EmailService {
	return &emailService{cfg: cfg}
}

func (s *emailService) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	return smtp.SendMail(addr, auth, s.cfg.From, to, composeMessage(to, subject, htmlBody))
}

// composeMessage builds the raw HTML mail. Every recipient appears in the
// To header, matching the envelope recipients.
func composeMessage(to []string, subject, htmlBody string) []byte {
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	return []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n%s\r\n%s", strings.Join(to, ", "), subject, mime, htmlBody))
}
