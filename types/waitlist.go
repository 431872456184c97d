package types

import "time"

// Email sequence positions. Position 0 means only the welcome email has gone
// out; SequenceComplete means the full drip sequence has been delivered and the
// user never becomes a send candidate again.
const (
	SequenceWelcome  = 0
	SequenceComplete = 4
)

// WaitlistUser is a waitlist signup and its drip-campaign progress.
type WaitlistUser struct {
	ID                      int64     `json:"id"`
	Name                    string    `json:"name"`
	Email                   string    `json:"email"`
	CreatedAt               time.Time `json:"created_at"`
	FeedbackCampaignStarted bool      `json:"feedback_campaign_started"`
	EmailSequencePosition   int       `json:"email_sequence_position"`
	LastEmailSentAt         time.Time `json:"last_email_sent_at"`
	Source                  string    `json:"source,omitempty"`
}

// WaitlistSignup is the request body for joining the waitlist.
type WaitlistSignup struct {
	Name   string `json:"name" binding:"required,min=1,max=100"`
	Email  string `json:"email" binding:"required,email,max=255"`
	Source string `json:"source,omitempty"`
}
