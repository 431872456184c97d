package types

import "time"

// FeedbackType enumerates the feedback categories accepted by the API.
type FeedbackType string

const (
	FeedbackTypeFeatureRequest FeedbackType = "feature_request"
	FeedbackTypeGeneral        FeedbackType = "general"
	FeedbackTypeImprovement    FeedbackType = "improvement"
	FeedbackTypeBug            FeedbackType = "bug"
)

// IsValid reports whether t is one of the known feedback types.
func (t FeedbackType) IsValid() bool {
	switch t {
	case FeedbackTypeFeatureRequest, FeedbackTypeGeneral, FeedbackTypeImprovement, FeedbackTypeBug:
		return true
	}
	return false
}

// UserSnapshot is the denormalized submitter captured at submission time.
// It is not a live join against the waitlist.
type UserSnapshot struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackRecord is a single feedback submission. Records are immutable once
// stored and are only removed by the admin clear-all operation.
type FeedbackRecord struct {
	ID             string       `json:"id"`
	CreatedAt      time.Time    `json:"created_at"`
	FeedbackType   FeedbackType `json:"feedback_type"`
	FeedbackText   string       `json:"feedback_text"`
	Rating         *int         `json:"rating,omitempty"`
	WaitlistUserID int64        `json:"waitlist_user_id,omitempty"`
	EmailID        string       `json:"email_id,omitempty"`
	User           UserSnapshot `json:"user"`
}

// FeedbackFilters are the optional query predicates for listing and exporting
// feedback. All set predicates are combined with logical AND. Zero values mean
// "not set".
type FeedbackFilters struct {
	Type       FeedbackType `form:"type"`
	MinRating  int          `form:"minRating" binding:"omitempty,gte=1,lte=5"`
	MaxRating  int          `form:"maxRating" binding:"omitempty,gte=1,lte=5"`
	StartDate  string       `form:"startDate"` // YYYY-MM-DD
	EndDate    string       `form:"endDate"`   // YYYY-MM-DD
	SearchTerm string       `form:"searchTerm"`
}

// HasRatingFilter reports whether either rating bound is set. A rating filter
// excludes records that carry no rating at all.
func (f FeedbackFilters) HasRatingFilter() bool {
	return f.MinRating > 0 || f.MaxRating > 0
}

// FeedbackPage is one page of filtered feedback plus the total match count.
type FeedbackPage struct {
	Data  []FeedbackRecord `json:"data"`
	Count int              `json:"count"`
}

// DayCount is one bucket of the per-day feedback histogram.
type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// FeedbackStats aggregates the admin dashboard headline numbers.
type FeedbackStats struct {
	TotalFeedback    int                  `json:"total_feedback"`
	AverageRating    *float64             `json:"average_rating"`
	FeedbackByType   map[FeedbackType]int `json:"feedback_by_type"`
	FeedbackByRating map[string]int       `json:"feedback_by_rating"`
	FeedbackByDay    []DayCount           `json:"feedback_by_day"`
	RecentFeedback   int                  `json:"recent_feedback"`
}

// KeywordCount is a keyword and its occurrence count across all feedback text.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// TextAnalytics holds the top keywords extracted from feedback text.
type TextAnalytics struct {
	Keywords []KeywordCount `json:"keywords"`
}

// FeedbackCreate is the request body for submitting feedback.
type FeedbackCreate struct {
	UserID       int64        `json:"userId" binding:"required,gt=0"`
	FeedbackText string       `json:"feedbackText" binding:"required,min=1,max=5000"`
	FeedbackType FeedbackType `json:"feedbackType" binding:"required"`
	Rating       *int         `json:"rating" binding:"omitempty,gte=1,lte=5"`
	EmailID      string       `json:"emailId,omitempty"`
}

// ContactRequest is the request body for the support and sales contact forms.
type ContactRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=100"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Message   string `json:"message" binding:"required,min=1,max=5000"`
	Type      string `json:"type,omitempty"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Subject   string `json:"subject,omitempty"`
	IssueType string `json:"issueType,omitempty"`
}
