package types

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of domain event published on the bus.
type EventType string

const (
	EventFeedbackCreated EventType = "feedback.created"
	EventWaitlistJoined  EventType = "waitlist.joined"
	EventCampaignSent    EventType = "campaign.email_sent"
)

// Event is the envelope published to Redis and forwarded to SSE subscribers.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}
