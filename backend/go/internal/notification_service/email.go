package notification_service

import (
	"fmt"
	"net/smtp"
	"strings"

	"Augur_1.0/backend/go/internal/config"
	"Augur_1.0/backend/go/internal/models"
)

// EmailSink sends alert emails over plain SMTP. Delivery is best
// effort; a failed send is logged by the caller and never retried.
type EmailSink struct {
	cfg config.EmailConfig
}

// NewEmailSink creates the sink.
func NewEmailSink(cfg config.EmailConfig) *EmailSink {
	return &EmailSink{cfg: cfg}
}

// Send delivers one alert to every configured recipient.
func (s *EmailSink) Send(alert *models.Alert) error {
	if !s.cfg.Enabled || len(s.cfg.Recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Stock alert: %s (%+.2f%%)", alert.Ticker, alert.PercentChange)
	body := fmt.Sprintf(
		"Ticker: %s\r\nTrend: %s\r\nPredicted change: %+.2f%%\r\nAnalysis: %s\r\nSource: %s\r\n",
		alert.Ticker, alert.Trend, alert.PercentChange, alert.Analysis, alert.Title,
	)
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.cfg.From, strings.Join(s.cfg.Recipients, ", "), subject, body,
	)

	if err := smtp.SendMail(s.cfg.SMTPAddr, nil, s.cfg.From, s.cfg.Recipients, []byte(msg)); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	return nil
}
