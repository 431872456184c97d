package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/AIStudyPlans/scheduled-backend/store"
	"github.com/AIStudyPlans/scheduled-backend/types"
)

var _ store.WaitlistStore = (*WaitlistStore)(nil)

// WaitlistStore is a mutex-guarded in-memory waitlist with sequential ids.
type WaitlistStore struct {
	mu     sync.RWMutex
	users  []types.WaitlistUser
	nextID int64
	delays store.DripDelays
}

// NewWaitlistStore creates an empty in-memory waitlist store using the given
// drip delays for due-user queries.
func NewWaitlistStore(delays store.DripDelays) *WaitlistStore {
	return &WaitlistStore{nextID: 1, delays: delays}
}

// Add registers a new signup. Duplicate emails (case-insensitive) are
// rejected with store.ErrDuplicateEmail.
func (s *WaitlistStore) Add(ctx context.Context, name, email, source string) (*types.WaitlistUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return nil, store.ErrDuplicateEmail
		}
	}

	user := types.WaitlistUser{
		ID:        s.nextID,
		Name:      name,
		Email:     email,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	s.nextID++
	s.users = append(s.users, user)

	return &user, nil
}

// GetByID returns the user with the given id, or store.ErrNotFound.
func (s *WaitlistStore) GetByID(ctx context.Context, id int64) (*types.WaitlistUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

// GetByEmail returns the user with the given email (case-insensitive), or
// store.ErrNotFound.
func (s *WaitlistStore) GetByEmail(ctx context.Context, email string) (*types.WaitlistUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.users {
		if strings.EqualFold(s.users[i].Email, email) {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

// StartFeedbackCampaign marks the campaign started at the welcome position
// and stamps LastEmailSentAt = now.
func (s *WaitlistStore) StartFeedbackCampaign(ctx context.Context, userID int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == userID {
			s.users[i].FeedbackCampaignStarted = true
			s.users[i].EmailSequencePosition = types.SequenceWelcome
			s.users[i].LastEmailSentAt = now
			return nil
		}
	}
	return store.ErrNotFound
}

// UsersDueForNextEmail returns users due at the given instant, ordered by
// sequence position ascending then oldest send first.
func (s *WaitlistStore) UsersDueForNextEmail(ctx context.Context, now time.Time) ([]types.WaitlistUser, error) {
	s.mu.RLock()
	due := make([]types.WaitlistUser, 0)
	for _, u := range s.users {
		if store.IsDueForNextEmail(u, now, s.delays) {
			due = append(due, u)
		}
	}
	s.mu.RUnlock()

	store.SortCandidates(due)
	return due, nil
}

// UpdateEmailSequencePosition sets the user's position and stamps
// LastEmailSentAt = now.
func (s *WaitlistStore) UpdateEmailSequencePosition(ctx context.Context, userID int64, newPosition int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == userID {
			s.users[i].EmailSequencePosition = newPosition
			s.users[i].LastEmailSentAt = now
			return nil
		}
	}
	return store.ErrNotFound
}

// Count returns the number of waitlist signups.
func (s *WaitlistStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}
