package sender

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net/smtp"
	"time"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP_HOST not set")
	}
	if cfg.Port == "" {
		return nil, fmt.Errorf("SMTP_PORT not set")
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("SMTP_USER not set")
	}
	if cfg.Password == "" {
		return nil, fmt.Errorf("SMTP_PASS not set")
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPSender{cfg: cfg}, nil
}

func (s *SMTPSender) SendEmail(ctx context.Context, to, subject, body string) (SendResult, error) {
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	msg := []byte(
		"From: " + s.cfg.From + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			body,
	)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return SendResult{}, fmt.Errorf("smtp send failed: %w", err)
	}

	return SendResult{
		MessageID: fmt.Sprintf("smtp-%d", time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}

//go:embed templates/order_confirmation.html
var orderConfirmationHTML string

var orderConfirmationTmpl = template.Must(template.New("order_confirmation").Parse(orderConfirmationHTML))

// TemplateConfirmationSender renders the confirmation locally and hands it to
// an EmailSender, copying the shop when ToShop is set.
type TemplateConfirmationSender struct {
	email   EmailSender
	subject string
}

func NewTemplateConfirmationSender(email EmailSender) *TemplateConfirmationSender {
	return &TemplateConfirmationSender{email: email, subject: "Your order is confirmed"}
}

func RenderOrderConfirmation(params OrderConfirmation) (string, error) {
	var buf bytes.Buffer
	if err := orderConfirmationTmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("template render failed: %w", err)
	}
	return buf.String(), nil
}

func (t *TemplateConfirmationSender) SendOrderConfirmation(ctx context.Context, params OrderConfirmation) (SendResult, error) {
	body, err := RenderOrderConfirmation(params)
	if err != nil {
		return SendResult{}, err
	}

	res, err := t.email.SendEmail(ctx, params.ToEmail, t.subject+" ("+params.OrderID+")", body)
	if err != nil {
		return SendResult{}, err
	}
	if params.ToShop != "" {
		// the customer already has their copy; a failed shop copy is not fatal
		_, _ = t.email.SendEmail(ctx, params.ToShop, "New order "+params.OrderID, body)
	}
	return res, nil
}
