package notification_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"Augur_1.0/backend/go/internal/database/kafka"
	"Augur_1.0/backend/go/internal/models"
	"Augur_1.0/backend/go/pkg/logger"
)

// RecordSource yields recently created prediction records.
type RecordSource interface {
	Recent(ctx context.Context, since time.Time, limit int) ([]models.PredictionRecord, error)
}

// Publisher fans an alert out to the event stream.
type Publisher interface {
	Publish(ctx context.Context, alert *models.Alert) error
}

// Options carries the notification loop's tunables.
type Options struct {
	Interval time.Duration // Pause between scans.
	Lookback time.Duration // How far back to scan for alert-worthy records.
}

// Service periodically scans fresh predictions for high-likelihood
// trends and fans alerts out to Kafka, email and SMS. Each
// record/ticker pair alerts exactly once; the seen set lives in Redis
// so restarts do not re-send.
type Service struct {
	records RecordSource
	seen    SeenStore
	pub     Publisher
	email   *EmailSink
	sms     *SMSSink
	opts    Options
	log     *logger.Logger
	now     func() time.Time
}

// NewService wires the notification loop. email and sms may be nil
// when the corresponding channel is disabled.
func NewService(records RecordSource, seen SeenStore, pub Publisher, email *EmailSink, sms *SMSSink, opts Options, log *logger.Logger) *Service {
	return &Service{
		records: records,
		seen:    seen,
		pub:     pub,
		email:   email,
		sms:     sms,
		opts:    opts,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run executes scans until ctx is canceled.
func (s *Service) Run(ctx context.Context) {
	for {
		if err := s.RunCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "CycleError"}).Error("notification cycle failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.opts.Interval):
		}
	}
}

// RunCycle performs one scan. Send failures on individual channels are
// logged and do not block the other channels or the seen-set update.
func (s *Service) RunCycle(ctx context.Context) error {
	log := s.log.WithTrace(uuid.NewString())
	now := s.now()

	records, err := s.records.Recent(ctx, now.Add(-s.opts.Lookback), 0)
	if err != nil {
		return fmt.Errorf("fetch recent predictions: %w", err)
	}

	var sent int
	for _, alert := range Select(records, now) {
		alert := alert
		already, err := s.seen.Contains(ctx, alert.Key())
		if err != nil {
			return fmt.Errorf("check seen set: %w", err)
		}
		if already {
			continue
		}

		if err := s.pub.Publish(ctx, &alert); err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: "PublishError"}).
				WithPayload(map[string]interface{}{"alert": alert.Key()}).
				Error("alert publish failed")
			continue
		}
		if s.email != nil {
			if err := s.email.Send(&alert); err != nil {
				log.WithError(models.ErrorInfo{Message: err.Error(), Type: "EmailError"}).Warn("alert email failed")
			}
		}
		if s.sms != nil {
			if err := s.sms.Send(ctx, &alert); err != nil {
				log.WithError(models.ErrorInfo{Message: err.Error(), Type: "SMSError"}).Warn("alert sms failed")
			}
		}

		if err := s.seen.Add(ctx, alert.Key()); err != nil {
			return fmt.Errorf("update seen set: %w", err)
		}
		sent++
	}

	log.WithPayload(map[string]interface{}{
		"scanned": len(records),
		"sent":    sent,
	}).Info("notification cycle complete")
	return nil
}

var _ Publisher = (*kafka.AlertPublisher)(nil)
