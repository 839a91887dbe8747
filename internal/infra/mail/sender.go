package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/buyer-leads/internal/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

func (s *EmailSender) SendMagicLink(to, link string) error {
	body, err := render("magic_link.html", MagicLinkEmailData{Link: link, ValidForMn: 15})
	if err != nil {
		return err
	}
	return s.send(to, "Your sign-in link", body)
}

func (s *EmailSender) SendStatusChange(to, buyerName string, oldStatus, newStatus entity.Status) error {
	body, err := render("status_change.html", StatusChangeEmailData{
		BuyerName: buyerName,
		OldStatus: string(oldStatus),
		NewStatus: string(newStatus),
	})
	if err != nil {
		return err
	}
	return s.send(to, fmt.Sprintf("%s is now %s", buyerName, newStatus), body)
}

func (s *EmailSender) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email via SMTP: %w", err)
	}
	return nil
}

func render(name string, data any) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return body.String(), nil
}
