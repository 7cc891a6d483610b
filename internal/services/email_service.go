package services

import (
	"fmt"
	"html"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

// EmailService forwards contact-form submissions to the configured inbox.
type EmailService interface {
	SendContactMessage(name, fromEmail, message string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
	inbox  string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, contactInbox string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
		inbox:  contactInbox,
	}
}

func (s *emailService) SendContactMessage(name, fromEmail, message string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.inbox)
	m.SetHeader("Reply-To", fromEmail)
	m.SetHeader("Subject", "[Vtask] Contact form message")

	body := fmt.Sprintf(`
		<h2>New contact message</h2>
		<p><b>Name:</b> %s</p>
		<p><b>Email:</b> %s</p>
		<p><b>Message:</b><br>%s</p>
		<hr>
		<p>Sent at: %s</p>
	`,
		html.EscapeString(name),
		html.EscapeString(fromEmail),
		strings.ReplaceAll(html.EscapeString(message), "\n", "<br>"),
		time.Now().Format(time.RFC1123),
	)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send contact message: %w", err)
	}
	return nil
}
