package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AIStudyPlans/scheduled-backend/config"
	apperrors "github.com/AIStudyPlans/scheduled-backend/errors"
	"github.com/AIStudyPlans/scheduled-backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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
	args := m.Called(ctx, userID, now)
	return args.Error(0)
}

func (m *mockWaitlistStore) UsersDueForNextEmail(ctx context.Context, now time.Time) ([]types.WaitlistUser, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.WaitlistUser), args.Error(1)
}

func (m *mockWaitlistStore) UpdateEmailSequencePosition(ctx context.Context, userID int64, newPosition int, now time.Time) error {
	args := m.Called(ctx, userID, newPosition, now)
	return args.Error(0)
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

// MockEventPublisher records published events for assertions.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, eventType types.EventType, payload any) error {
	args := m.Called(ctx, eventType, payload)
	return args.Error(0)
}

func testCampaignConfig() config.CampaignConfig {
	return config.CampaignConfig{
		IntervalMinutes:  60,
		BatchSize:        50,
		InitialDelayDays: 5,
		StepDelayDays:    10,
	}
}

func TestCampaignService_SendAndAdvance(t *testing.T) {
	waitlist := &mockWaitlistStore{}
	email := &mockEmailSender{}
	events := &MockEventPublisher{}
	svc := NewCampaignService(waitlist, email, nil, events, testCampaignConfig(), "https://scheduled.example")

	user := types.WaitlistUser{ID: 7, Name: "Ada", Email: "ada@example.com", EmailSequencePosition: 1}

	email.On("Send", mock.Anything, mock.MatchedBy(func(msg types.EmailMessage) bool {
		return msg.To == "ada@example.com" && msg.Subject == campaignSteps[2].Subject
	})).Return("msg-1", nil)
	waitlist.On("UpdateEmailSequencePosition", mock.Anything, int64(7), 2, mock.AnythingOfType("time.Time")).
		Return(nil)
	events.On("Publish", mock.Anything, types.EventCampaignSent, mock.Anything).Return(nil)

	err := svc.sendAndAdvance(context.Background(), user, 2)
	require.NoError(t, err)

	waitlist.AssertExpectations(t)
	email.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestCampaignService_SendFailureDoesNotAdvance(t *testing.T) {
	waitlist := &mockWaitlistStore{}
	email := &mockEmailSender{}
	svc := NewCampaignService(waitlist, email, nil, nil, testCampaignConfig(), "https://scheduled.example")

	user := types.WaitlistUser{ID: 7, Name: "Ada", Email: "ada@example.com", EmailSequencePosition: 0}

	email.On("Send", mock.Anything, mock.Anything).Return("", assert.AnError)

	err := svc.sendAndAdvance(context.Background(), user, 1)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.EmailError, appErr.Type)
	assert.ErrorIs(t, err, assert.AnError)

	waitlist.AssertNotCalled(t, "UpdateEmailSequencePosition",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCampaignService_NoTemplateBeyondTerminal(t *testing.T) {
	waitlist := &mockWaitlistStore{}
	email := &mockEmailSender{}
	svc := NewCampaignService(waitlist, email, nil, nil, testCampaignConfig(), "https://scheduled.example")

	user := types.WaitlistUser{ID: 7, Name: "Ada", Email: "ada@example.com", EmailSequencePosition: 4}

	err := svc.sendAndAdvance(context.Background(), user, 5)
	assert.Error(t, err)

	email.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	waitlist.AssertNotCalled(t, "UpdateEmailSequencePosition",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCampaignService_RunOnceCapsBatch(t *testing.T) {
	waitlist := &mockWaitlistStore{}
	email := &mockEmailSender{}
	pool := NewWorkerPool(config.WorkerPoolConfig{MaxWorkers: 2, QueueSize: 16, ShutdownTimeoutSeconds: 5})
	pool.Start()

	cfg := testCampaignConfig()
	cfg.BatchSize = 2
	svc := NewCampaignService(waitlist, email, pool, nil, cfg, "https://scheduled.example")

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	due := []types.WaitlistUser{
		{ID: 1, Name: "A", Email: "a@example.com", EmailSequencePosition: 0},
		{ID: 2, Name: "B", Email: "b@example.com", EmailSequencePosition: 0},
		{ID: 3, Name: "C", Email: "c@example.com", EmailSequencePosition: 1},
	}

	var wg sync.WaitGroup
	wg.Add(2)
	waitlist.On("UsersDueForNextEmail", mock.Anything, now).Return(due, nil)
	email.On("Send", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { wg.Done() }).
		Return("msg", nil)
	waitlist.On("UpdateEmailSequencePosition", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	dispatched, err := svc.RunOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, dispatched, "batch cap should limit dispatch to two users")

	wg.Wait()
	require.NoError(t, pool.Shutdown(context.Background()))
	email.AssertNumberOfCalls(t, "Send", 2)
}

func TestCampaignService_RunOnceQueryError(t *testing.T) {
	waitlist := &mockWaitlistStore{}
	svc := NewCampaignService(waitlist, &mockEmailSender{}, nil, nil, testCampaignConfig(), "https://scheduled.example")

	now := time.Now().UTC()
	waitlist.On("UsersDueForNextEmail", mock.Anything, now).Return(nil, assert.AnError)

	_, err := svc.RunOnce(context.Background(), now)
	assert.Error(t, err)
}
