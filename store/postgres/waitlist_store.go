package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AIStudyPlans/scheduled-backend/store"
	"github.com/AIStudyPlans/scheduled-backend/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ store.WaitlistStore = (*WaitlistStore)(nil)

// WaitlistStore implements store.WaitlistStore on PostgreSQL.
type WaitlistStore struct {
	pool   PgxPool
	delays store.DripDelays
}

// NewWaitlistStore creates a waitlist store over the given pool, using the
// given drip delays for due-user queries.
func NewWaitlistStore(pool PgxPool, delays store.DripDelays) *WaitlistStore {
	return &WaitlistStore{pool: pool, delays: delays}
}

const waitlistColumns = `id, name, email, created_at, feedback_campaign_started, email_sequence_position, last_email_sent_at, source`

// Add registers a new signup. The unique index on lower(email) turns
// duplicates into store.ErrDuplicateEmail.
func (s *WaitlistStore) Add(ctx context.Context, name, email, source string) (*types.WaitlistUser, error) {
	user := types.WaitlistUser{
		Name:      name,
		Email:     email,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO waitlist_users (name, email, source, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		name, email, source, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, store.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert waitlist user: %w", err)
	}

	return &user, nil
}

// GetByID returns the user with the given id, or store.ErrNotFound.
func (s *WaitlistStore) GetByID(ctx context.Context, id int64) (*types.WaitlistUser, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+waitlistColumns+" FROM waitlist_users WHERE id = $1", id)
	return scanWaitlistRow(row)
}

// GetByEmail returns the user with the given email (case-insensitive), or
// store.ErrNotFound.
func (s *WaitlistStore) GetByEmail(ctx context.Context, email string) (*types.WaitlistUser, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+waitlistColumns+" FROM waitlist_users WHERE lower(email) = lower($1)", email)
	return scanWaitlistRow(row)
}

// StartFeedbackCampaign marks the campaign started at the welcome position
// and stamps the welcome send time.
func (s *WaitlistStore) StartFeedbackCampaign(ctx context.Context, userID int64, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE waitlist_users
		SET feedback_campaign_started = TRUE, email_sequence_position = 0, last_email_sent_at = $2
		WHERE id = $1`,
		userID, now,
	)
	if err != nil {
		return fmt.Errorf("start campaign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UsersDueForNextEmail returns users due at the given instant, ordered by
// sequence position ascending then oldest send first. Position 0 uses the
// initial delay, positions 1-3 the step delay; the terminal position is
// excluded in the query.
func (s *WaitlistStore) UsersDueForNextEmail(ctx context.Context, now time.Time) ([]types.WaitlistUser, error) {
	initialCutoff := now.Add(-s.delays.Initial)
	stepCutoff := now.Add(-s.delays.Step)

	rows, err := s.pool.Query(ctx, `
		SELECT `+waitlistColumns+`
		FROM waitlist_users
		WHERE feedback_campaign_started
		  AND email_sequence_position < $1
		  AND (
		    (email_sequence_position = 0 AND last_email_sent_at <= $2)
		    OR (email_sequence_position > 0 AND last_email_sent_at <= $3)
		  )
		ORDER BY email_sequence_position ASC, last_email_sent_at ASC`,
		types.SequenceComplete, initialCutoff, stepCutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("query due users: %w", err)
	}
	defer rows.Close()

	var users []types.WaitlistUser
	for rows.Next() {
		user, err := scanWaitlist(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due users: %w", err)
	}
	return users, nil
}

// UpdateEmailSequencePosition sets the user's position and stamps the send
// time.
func (s *WaitlistStore) UpdateEmailSequencePosition(ctx context.Context, userID int64, newPosition int, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE waitlist_users
		SET email_sequence_position = $2, last_email_sent_at = $3
		WHERE id = $1`,
		userID, newPosition, now,
	)
	if err != nil {
		return fmt.Errorf("update sequence position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Count returns the number of waitlist signups.
func (s *WaitlistStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM waitlist_users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count waitlist users: %w", err)
	}
	return count, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanWaitlist(row scannable) (*types.WaitlistUser, error) {
	var user types.WaitlistUser
	var lastSent *time.Time
	if err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.CreatedAt,
		&user.FeedbackCampaignStarted, &user.EmailSequencePosition,
		&lastSent, &user.Source,
	); err != nil {
		return nil, err
	}
	if lastSent != nil {
		user.LastEmailSentAt = *lastSent
	}
	return &user, nil
}

func scanWaitlistRow(row pgx.Row) (*types.WaitlistUser, error) {
	user, err := scanWaitlist(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan waitlist user: %w", err)
	}
	return user, nil
}
