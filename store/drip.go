package store

import (
	"sort"
	"time"

	"github.com/AIStudyPlans/scheduled-backend/types"
)

// DripDelays are the waits between drip-campaign emails.
type DripDelays struct {
	// Initial is the wait after the welcome email (position 0).
	Initial time.Duration
	// Step is the wait between campaign steps (positions 1-3).
	Step time.Duration
}

// DefaultDripDelays matches the nominal campaign cadence: the first feedback
// prompt 5 days after the welcome email, subsequent prompts every 10 days.
var DefaultDripDelays = DripDelays{
	Initial: 5 * 24 * time.Hour,
	Step:    10 * 24 * time.Hour,
}

// IsDueForNextEmail reports whether u is due for the next campaign email at
// the given instant. Users at the terminal position are never due.
func IsDueForNextEmail(u types.WaitlistUser, now time.Time, d DripDelays) bool {
	if !u.FeedbackCampaignStarted {
		return false
	}
	if u.EmailSequencePosition >= types.SequenceComplete {
		return false
	}
	threshold := d.Step
	if u.EmailSequencePosition == types.SequenceWelcome {
		threshold = d.Initial
	}
	return !now.Before(u.LastEmailSentAt.Add(threshold))
}

// SortCandidates orders due users by sequence position ascending (earlier in
// the sequence first), then by LastEmailSentAt ascending (longest-waiting
// first).
func SortCandidates(users []types.WaitlistUser) {
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].EmailSequencePosition != users[j].EmailSequencePosition {
			return users[i].EmailSequencePosition < users[j].EmailSequencePosition
		}
		return users[i].LastEmailSentAt.Before(users[j].LastEmailSentAt)
	})
}
