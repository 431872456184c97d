package services

import (
	"context"
	"fmt"
	"time"

	"github.com/AIStudyPlans/scheduled-backend/config"
	apperrors "github.com/AIStudyPlans/scheduled-backend/errors"
	"github.com/AIStudyPlans/scheduled-backend/logger"
	"github.com/AIStudyPlans/scheduled-backend/store"
	"github.com/AIStudyPlans/scheduled-backend/types"
	"go.uber.org/zap"
)

// CampaignService drives the feedback drip campaign: it finds waitlist users
// whose next email is due, renders the email for their next sequence position,
// and advances the position after a successful send. Send-then-advance is not
// atomic, so a crash between the two can re-send an email on the next pass
// (at-least-once delivery).
type CampaignService struct {
	waitlist store.WaitlistStore
	email    EmailSender
	pool     *WorkerPool
	events   EventPublisher
	cfg      config.CampaignConfig
	appURL   string
	log      *zap.SugaredLogger
}

// NewCampaignService wires the scheduler against its collaborators. events may
// be nil when no live dashboard feed is wanted.
func NewCampaignService(
	waitlist store.WaitlistStore,
	email EmailSender,
	pool *WorkerPool,
	events EventPublisher,
	cfg config.CampaignConfig,
	appURL string,
) *CampaignService {
	return &CampaignService{
		waitlist: waitlist,
		email:    email,
		pool:     pool,
		events:   events,
		cfg:      cfg,
		appURL:   appURL,
		log:      logger.GetLogger().Named("campaign"),
	}
}

// RunOnce executes a single scheduler pass at the given instant: query due
// users, cap the batch, and submit one send job per user. It returns the
// number of jobs accepted by the worker pool; sends themselves complete
// asynchronously.
func (s *CampaignService) RunOnce(ctx context.Context, now time.Time) (int, error) {
	users, err := s.waitlist.UsersDueForNextEmail(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("query due users: %w", err)
	}

	if len(users) > s.cfg.BatchSize {
		s.log.Infow("Capping scheduler batch",
			"due", len(users),
			"batchSize", s.cfg.BatchSize)
		users = users[:s.cfg.BatchSize]
	}

	dispatched := 0
	for _, user := range users {
		user := user
		nextPosition := user.EmailSequencePosition + 1

		job := Job{
			Name: fmt.Sprintf("campaign-send-user-%d-pos-%d", user.ID, nextPosition),
			Execute: func(jobCtx context.Context) error {
				return s.sendAndAdvance(jobCtx, user, nextPosition)
			},
		}
		if s.pool.Submit(job) {
			dispatched++
		}
	}

	if dispatched > 0 || len(users) > 0 {
		s.log.Infow("Scheduler pass complete",
			"due", len(users),
			"dispatched", dispatched)
	}
	return dispatched, nil
}

// sendAndAdvance renders and sends the email for nextPosition, then advances
// the user's sequence position. The advance only happens after a successful
// send; a send failure leaves the user due again on the next pass.
func (s *CampaignService) sendAndAdvance(ctx context.Context, user types.WaitlistUser, nextPosition int) error {
	msg, err := CampaignEmail(nextPosition, &user, s.appURL)
	if err != nil {
		return err
	}

	messageID, err := s.email.Send(ctx, msg)
	if err != nil {
		return apperrors.NewEmailError(fmt.Errorf("send campaign email to user %d: %w", user.ID, err))
	}

	if err := s.waitlist.UpdateEmailSequencePosition(ctx, user.ID, nextPosition, time.Now().UTC()); err != nil {
		return fmt.Errorf("advance user %d to position %d: %w", user.ID, nextPosition, err)
	}

	if s.events != nil {
		payload := map[string]any{
			"userId":    user.ID,
			"position":  nextPosition,
			"emailId":   CampaignEmailID(nextPosition),
			"messageId": messageID,
		}
		if err := s.events.Publish(ctx, types.EventCampaignSent, payload); err != nil {
			s.log.Warnw("Failed to publish campaign event",
				"userId", user.ID,
				"error", err)
		}
	}

	return nil
}

// Run loops scheduler passes on a ticker until ctx is cancelled. It runs one
// pass immediately on startup so a restarted service doesn't wait a full
// interval.
func (s *CampaignService) Run(ctx context.Context) {
	interval := time.Duration(s.cfg.IntervalMinutes) * time.Minute
	s.log.Infow("Starting campaign scheduler", "interval", interval)

	if _, err := s.RunOnce(ctx, time.Now().UTC()); err != nil {
		s.log.Errorw("Scheduler pass failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Campaign scheduler stopping")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx, time.Now().UTC()); err != nil {
				s.log.Errorw("Scheduler pass failed", "error", err)
			}
		}
	}
}
