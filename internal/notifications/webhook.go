package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kjannette/pi-tracker/internal/httputil"
	"go.uber.org/zap"
)

// Sender surfaces user-facing alerts: always on the log, and on a Slack or
// Discord webhook when one is configured.
type Sender struct {
	webhookURL string
	botName    string
	httpClient *http.Client
	retry      httputil.RetryConfig
	logger     *zap.Logger
}

func NewSender(webhookURL, botName string, logger *zap.Logger) *Sender {
	if botName == "" {
		botName = "PiTracker"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		webhookURL: webhookURL,
		botName:    botName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
			Logger:      logger,
		},
		logger: logger,
	}
}

// Alert reports an error the user should see. It never blocks the caller on
// the webhook.
func (s *Sender) Alert(title, msg string) {
	s.logger.Error(msg, zap.String("alert", title))
	if !s.Enabled() {
		return
	}
	go s.post(fmt.Sprintf("[%s] %s: %s", s.botName, title, msg))
}

func (s *Sender) Send(msg string) {
	s.logger.Info(msg, zap.String("bot", s.botName))
	if !s.Enabled() {
		return
	}
	s.post(fmt.Sprintf("[%s] %s", s.botName, msg))
}

func (s *Sender) post(formatted string) {
	body, err := json.Marshal(s.formatPayload(formatted))
	if err != nil {
		s.logger.Error("marshal webhook payload", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := httputil.Do(ctx, s.httpClient, s.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		s.logger.Error("failed to send notification after retries", zap.Error(err))
		return
	}
	resp.Body.Close()
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.botName,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.botName,
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}
