package notification_service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"Augur_1.0/backend/go/internal/config"
	"Augur_1.0/backend/go/internal/models"
)

// SMSSink sends alert texts through a Twilio-style messaging REST API.
// Delivery is best effort, same as email.
type SMSSink struct {
	client *http.Client
	cfg    config.SMSConfig
}

// NewSMSSink creates the sink.
func NewSMSSink(cfg config.SMSConfig) *SMSSink {
	return &SMSSink{
		client: &http.Client{Timeout: 15 * time.Second},
		cfg:    cfg,
	}
}

// Send delivers one alert to every configured number.
func (s *SMSSink) Send(ctx context.Context, alert *models.Alert) error {
	if !s.cfg.Enabled || len(s.cfg.Recipients) == 0 {
		return nil
	}

	body := fmt.Sprintf("%s %s: %+.2f%% (%s)", alert.Ticker, alert.Trend, alert.PercentChange, alert.Title)
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.cfg.BaseURL, s.cfg.AccountSID)

	for _, to := range s.cfg.Recipients {
		form := url.Values{}
		form.Set("From", s.cfg.From)
		form.Set("To", to)
		form.Set("Body", body)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("build sms request: %w", err)
		}
		req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("send alert sms to %s: %w", to, err)
		}
		payload, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("send alert sms to %s: status %d: %s", to, resp.StatusCode, payload)
		}
	}
	return nil
}
