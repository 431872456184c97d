// Package store defines the persistence interfaces for feedback and waitlist
// data, plus the drip-campaign eligibility rules shared by all
// implementations.
package store

import (
	"context"
	"time"

	"github.com/AIStudyPlans/scheduled-backend/types"
)

// FeedbackStore holds feedback submissions and answers filtered, paginated,
// aggregated, and exported views over them.
type FeedbackStore interface {
	// AddSubmission attaches a denormalized user snapshot (placeholder
	// identity when name/email are empty) and stores the record newest-first.
	AddSubmission(ctx context.Context, rec *types.FeedbackRecord, userName, userEmail string) (*types.FeedbackRecord, error)

	// GetAll returns one page of records matching the filters plus the total
	// match count. Out-of-range pages return empty data, not an error.
	GetAll(ctx context.Context, page, pageSize int, f types.FeedbackFilters) (*types.FeedbackPage, error)

	// GetStats aggregates totals, average rating, per-type and per-rating
	// counts, and a 14-day histogram generated backward from now.
	GetStats(ctx context.Context, now time.Time) (*types.FeedbackStats, error)

	// GetTextAnalytics returns the top 10 keywords across all feedback text.
	GetTextAnalytics(ctx context.Context) (*types.TextAnalytics, error)

	// ExportCSV serializes all records matching the filters. Unlike GetAll,
	// its date-range filter is a true chronological comparison.
	ExportCSV(ctx context.Context, f types.FeedbackFilters) (string, int, error)

	// ClearAll empties the store unconditionally. Irreversible.
	ClearAll(ctx context.Context) error
}

// WaitlistStore holds waitlist signups and their drip-campaign progress.
type WaitlistStore interface {
	Add(ctx context.Context, name, email, source string) (*types.WaitlistUser, error)
	GetByID(ctx context.Context, id int64) (*types.WaitlistUser, error)
	GetByEmail(ctx context.Context, email string) (*types.WaitlistUser, error)

	// StartFeedbackCampaign marks the campaign started at position 0 and
	// stamps LastEmailSentAt (the welcome email send time).
	StartFeedbackCampaign(ctx context.Context, userID int64, now time.Time) error

	// UsersDueForNextEmail returns campaign users due for their next drip
	// email, ordered by sequence position ascending then oldest send first.
	UsersDueForNextEmail(ctx context.Context, now time.Time) ([]types.WaitlistUser, error)

	// UpdateEmailSequencePosition advances a user's position and stamps
	// LastEmailSentAt = now. The only mutation path after a send.
	UpdateEmailSequencePosition(ctx context.Context, userID int64, newPosition int, now time.Time) error

	Count(ctx context.Context) (int, error)
}
