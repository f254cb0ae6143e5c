package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// EmailJSConfig is the service/template/user triple plus the optional private key.
type EmailJSConfig struct {
	Endpoint   string
	ServiceID  string
	TemplateID string
	UserID     string
	AccessKey  string
}

// EmailJSSender renders confirmations through a hosted EmailJS template.
type EmailJSSender struct {
	cfg        EmailJSConfig
	httpClient *http.Client
}

func NewEmailJSSender(cfg EmailJSConfig) (*EmailJSSender, error) {
	if cfg.ServiceID == "" {
		return nil, fmt.Errorf("EMAILJS_SERVICE_ID not set")
	}
	if cfg.TemplateID == "" {
		return nil, fmt.Errorf("EMAILJS_TEMPLATE_ID not set")
	}
	if cfg.UserID == "" {
		return nil, fmt.Errorf("EMAILJS_USER_ID not set")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEmailJSEndpoint
	}
	return &EmailJSSender{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams OrderConfirmation `json:"template_params"`
}

func (s *EmailJSSender) SendOrderConfirmation(ctx context.Context, params OrderConfirmation) (SendResult, error) {
	payload, err := json.Marshal(emailJSRequest{
		ServiceID:      s.cfg.ServiceID,
		TemplateID:     s.cfg.TemplateID,
		UserID:         s.cfg.UserID,
		AccessToken:    s.cfg.AccessKey,
		TemplateParams: params,
	})
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to encode emailjs request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("emailjs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return SendResult{}, fmt.Errorf("emailjs error %s: %s", resp.Status, string(respBody))
	}

	return SendResult{
		MessageID: fmt.Sprintf("emailjs-%s-%d", params.OrderID, time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}
