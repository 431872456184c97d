package services

import (
	"context"
	"fmt"
	"time"

	"github.com/AIStudyPlans/scheduled-backend/config"
	"github.com/AIStudyPlans/scheduled-backend/logger"
	"github.com/AIStudyPlans/scheduled-backend/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/resend/resend-go/v2"
)

// EmailSender dispatches a single email and returns the provider message id.
// Implemented by EmailService; handler and scheduler tests substitute mocks.
type EmailSender interface {
	Send(ctx context.Context, msg types.EmailMessage) (string, error)
}

type EmailMetrics struct {
	sendLatency prometheus.Histogram
	errorCount  prometheus.Counter
	sentCount   prometheus.Counter
}

// EmailService sends transactional and campaign emails through Resend.
// Delivery is single-attempt; the caller decides what a failure means.
type EmailService struct {
	config  *config.EmailConfig
	client  *resend.Client
	metrics *EmailMetrics
}

var _ EmailSender = (*EmailService)(nil)

func NewEmailService(cfg *config.EmailConfig) (*EmailService, error) {
	return NewEmailServiceWithRegistry(cfg, prometheus.DefaultRegisterer)
}

func NewEmailServiceWithRegistry(cfg *config.EmailConfig, reg prometheus.Registerer) (*EmailService, error) {
	if cfg.ResendAPIKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	logger.GetLogger().Infow("Initializing email service",
		"from", logger.MaskEmail(cfg.FromAddress),
		"apikey", logger.MaskSensitiveString(cfg.ResendAPIKey, 3, 2))

	client := resend.NewClient(cfg.ResendAPIKey)
	metrics := &EmailMetrics{
		sendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduled_email_send_duration_seconds",
			Help:    "Time taken to send emails",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		}),
		errorCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduled_email_errors_total",
			Help: "Total number of email sending errors",
		}),
		sentCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduled_emails_sent_total",
			Help: "Total number of emails sent",
		}),
	}

	reg.MustRegister(metrics.sendLatency)
	reg.MustRegister(metrics.errorCount)
	reg.MustRegister(metrics.sentCount)

	return &EmailService{
		config:  cfg,
		client:  client,
		metrics: metrics,
	}, nil
}

// Send dispatches msg through Resend and returns the provider message id.
// Errors propagate unchanged; there is no retry or queueing here.
func (s *EmailService) Send(ctx context.Context, msg types.EmailMessage) (string, error) {
	startTime := time.Now()
	log := logger.GetLogger()
	defer func() {
		s.metrics.sendLatency.Observe(time.Since(startTime).Seconds())
	}()

	if msg.To == "" {
		s.metrics.errorCount.Inc()
		return "", fmt.Errorf("email recipient is required")
	}
	if msg.Subject == "" {
		s.metrics.errorCount.Inc()
		return "", fmt.Errorf("email subject is required")
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if s.config.ReplyTo != "" {
		params.ReplyTo = s.config.ReplyTo
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		s.metrics.errorCount.Inc()
		log.Errorw("Failed to send email",
			"error", err,
			"to", logger.MaskEmail(msg.To),
			"subject", msg.Subject)
		return "", fmt.Errorf("email send failed: %w", err)
	}

	s.metrics.sentCount.Inc()
	log.Infow("Email sent successfully",
		"to", logger.MaskEmail(msg.To),
		"subject", msg.Subject,
		"messageId", sent.Id)

	return sent.Id, nil
}
