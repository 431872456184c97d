package services

import (
	"context"
	"testing"

	"github.com/AIStudyPlans/scheduled-backend/config"
	"github.com/AIStudyPlans/scheduled-backend/types"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock Resend client
type mockEmailsService struct {
	mock.Mock
}

func (m *mockEmailsService) Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resend.SendEmailResponse), args.Error(1)
}

func (m *mockEmailsService) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resend.SendEmailResponse), args.Error(1)
}

func (m *mockEmailsService) Update(params *resend.UpdateEmailRequest) (*resend.UpdateEmailResponse, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resend.UpdateEmailResponse), args.Error(1)
}

func (m *mockEmailsService) UpdateWithContext(ctx context.Context, params *resend.UpdateEmailRequest) (*resend.UpdateEmailResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resend.UpdateEmailResponse), args.Error(1)
}

func (m *mockEmailsService) Cancel(id string) (*resend.CancelScheduledEmailResponse, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resend.CancelScheduledEmailResponse), args.Error(1)
}

func (m *mockEmailsService) CancelWithContext(ctx context.Context, id string) (*resend.CancelScheduledEmailResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resend.CancelScheduledEmailResponse), args.Error(1)
}

func (m *mockEmailsService) Get(id string) (*resend.Email, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resend.Email), args.Error(1)
}

func (m *mockEmailsService) GetWithContext(ctx context.Context, id string) (*resend.Email, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resend.Email), args.Error(1)
}

// Mock registry that doesn't actually register metrics
type mockRegistry struct{}

func (m *mockRegistry) Register(c prometheus.Collector) error   { return nil }
func (m *mockRegistry) MustRegister(cs ...prometheus.Collector) {}
func (m *mockRegistry) Unregister(c prometheus.Collector) bool  { return true }

func testEmailConfig() *config.EmailConfig {
	return &config.EmailConfig{
		FromName:     "SchedulEd",
		FromAddress:  "hello@scheduled.example",
		ReplyTo:      "support@scheduled.example",
		ResendAPIKey: "test-api-key",
	}
}

func TestNewEmailService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmailServiceWithRegistry(&config.EmailConfig{FromAddress: "a@b.c"}, &mockRegistry{})
	assert.Error(t, err)

	service, err := NewEmailServiceWithRegistry(testEmailConfig(), &mockRegistry{})
	require.NoError(t, err)
	assert.NotNil(t, service.client)
	assert.NotNil(t, service.metrics)
}

func TestSend(t *testing.T) {
	tests := []struct {
		name        string
		msg         types.EmailMessage
		setupMock   func(*mockEmailsService)
		expectError bool
		expectID    string
	}{
		{
			name: "successful send returns provider id",
			msg: types.EmailMessage{
				To:      "ada@example.com",
				Subject: "Welcome to the SchedulEd waitlist!",
				HTML:    "<p>hi</p>",
				Text:    "hi",
			},
			setupMock: func(m *mockEmailsService) {
				m.On("SendWithContext", mock.Anything, mock.MatchedBy(func(p *resend.SendEmailRequest) bool {
					return p.From == "SchedulEd <hello@scheduled.example>" &&
						len(p.To) == 1 && p.To[0] == "ada@example.com" &&
						p.ReplyTo == "support@scheduled.example"
				})).Return(&resend.SendEmailResponse{Id: "msg-123"}, nil)
			},
			expectID: "msg-123",
		},
		{
			name: "provider error propagates",
			msg: types.EmailMessage{
				To:      "ada@example.com",
				Subject: "Welcome",
			},
			setupMock: func(m *mockEmailsService) {
				m.On("SendWithContext", mock.Anything, mock.AnythingOfType("*resend.SendEmailRequest")).
					Return(nil, assert.AnError)
			},
			expectError: true,
		},
		{
			name:        "missing recipient rejected before dispatch",
			msg:         types.EmailMessage{Subject: "Welcome"},
			setupMock:   func(m *mockEmailsService) {},
			expectError: true,
		},
		{
			name:        "missing subject rejected before dispatch",
			msg:         types.EmailMessage{To: "ada@example.com"},
			setupMock:   func(m *mockEmailsService) {},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockEmails := &mockEmailsService{}
			tt.setupMock(mockEmails)

			service, err := NewEmailServiceWithRegistry(testEmailConfig(), &mockRegistry{})
			require.NoError(t, err)
			service.client.Emails = mockEmails

			id, err := service.Send(context.Background(), tt.msg)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectID, id)
			}

			mockEmails.AssertExpectations(t)
		})
	}
}

func TestEmailMetrics(t *testing.T) {
	service, err := NewEmailServiceWithRegistry(testEmailConfig(), &mockRegistry{})
	require.NoError(t, err)
	mockEmails := &mockEmailsService{}
	service.client.Emails = mockEmails

	mockEmails.On("SendWithContext", mock.Anything, mock.AnythingOfType("*resend.SendEmailRequest")).
		Return(&resend.SendEmailResponse{Id: "msg-1"}, nil).Once()

	msg := types.EmailMessage{To: "ada@example.com", Subject: "Welcome", HTML: "<p>hi</p>"}

	initialSentCount := testGetCounterValue(service.metrics.sentCount)
	initialErrorCount := testGetCounterValue(service.metrics.errorCount)

	_, err = service.Send(context.Background(), msg)
	assert.NoError(t, err)

	assert.Equal(t, initialSentCount+1, testGetCounterValue(service.metrics.sentCount))
	assert.Equal(t, initialErrorCount, testGetCounterValue(service.metrics.errorCount))

	mockEmails.On("SendWithContext", mock.Anything, mock.AnythingOfType("*resend.SendEmailRequest")).
		Return(nil, assert.AnError).Once()

	_, err = service.Send(context.Background(), msg)
	assert.Error(t, err)

	assert.Equal(t, initialSentCount+1, testGetCounterValue(service.metrics.sentCount))
	assert.Equal(t, initialErrorCount+1, testGetCounterValue(service.metrics.errorCount))

	mockEmails.AssertExpectations(t)
}

// Helper function to get counter value
func testGetCounterValue(counter prometheus.Counter) float64 {
	var m dto.Metric
	_ = counter.Write(&m)
	return *m.Counter.Value
}
