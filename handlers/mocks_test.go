package handlers

import (
	"context"
	"time"

	"github.com/AIStudyPlans/scheduled-backend/types"
	"github.com/stretchr/testify/mock"
)

type mockFeedbackStore struct {
	mock.Mock
}

func (m *mockFeedbackStore) AddSubmission(ctx context.Context, rec *types.FeedbackRecord, userName, userEmail string) (*types.FeedbackRecord, error) {
	args := m.Called(ctx, rec, userName, userEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.FeedbackRecord), args.Error(1)
}

func (m *mockFeedbackStore) GetAll(ctx context.Context, page, pageSize int, f types.FeedbackFilters) (*types.FeedbackPage, error) {
	args := m.Called(ctx, page, pageSize, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.FeedbackPage), args.Error(1)
}

func (m *mockFeedbackStore) GetStats(ctx context.Context, now time.Time) (*types.FeedbackStats, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.FeedbackStats), args.Error(1)
}

func (m *mockFeedbackStore) GetTextAnalytics(ctx context.Context) (*types.TextAnalytics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TextAnalytics), args.Error(1)
}

func (m *mockFeedbackStore) ExportCSV(ctx context.Context, f types.FeedbackFilters) (string, int, error) {
	args := m.Called(ctx, f)
	return args.String(0), args.Int(1), args.Error(2)
}

func (m *mockFeedbackStore) ClearAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockWaitlistStore struct {
	mock.Mock
}

func (m *mockWaitlistStore) Add(ctx context.Context, name, email, source string) (*types.WaitlistUser, error) {
	args := m.Called(ctx, name, email, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.WaitlistUser), args.Error(1)
}

func (m *mockWaitlistStore) GetByID(ctx context.Context, id int64) (*types.WaitlistUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.WaitlistUser), args.Error(1)
}

func (m *mockWaitlistStore) GetByEmail(ctx context.Context, email string) (*types.WaitlistUser, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.WaitlistUser), args.Error(1)
}

func (m *mockWaitlistStore) StartFeedbackCampaign(ctx context.Context, userID int64, now time.Time) error {
	return m.Called(ctx, userID, now).Error(0)
}

func (m *mockWaitlistStore) UsersDueForNextEmail(ctx context.Context, now time.Time) ([]types.WaitlistUser, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.WaitlistUser), args.Error(1)
}

func (m *mockWaitlistStore) UpdateEmailSequencePosition(ctx context.Context, userID int64, newPosition int, now time.Time) error {
	return m.Called(ctx, userID, newPosition, now).Error(0)
}

func (m *mockWaitlistStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockEmailSender struct {
	mock.Mock
}

func (m *mockEmailSender) Send(ctx context.Context, msg types.EmailMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) Publish(ctx context.Context, eventType types.EventType, payload any) error {
	return m.Called(ctx, eventType, payload).Error(0)
}
