package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AIStudyPlans/scheduled-backend/types"
)

// CSVHeader is the fixed export header. Column order is part of the contract
// consumed by the admin dashboard download.
const CSVHeader = "User ID,Name,Email,Feedback Type,Feedback Text,Rating,Email ID,Date"

// RenderCSV serializes records in order. String fields are double-quoted with
// internal quotes escaped by doubling.
func RenderCSV(records []types.FeedbackRecord) string {
	var b strings.Builder
	b.WriteString(CSVHeader)
	b.WriteString("\n")
	for _, rec := range records {
		rating := ""
		if rec.Rating != nil {
			rating = strconv.Itoa(*rec.Rating)
		}
		b.WriteString(fmt.Sprintf("%d,%s,%s,%s,%s,%s,%s,%s\n",
			rec.WaitlistUserID,
			csvQuote(rec.User.Name),
			csvQuote(rec.User.Email),
			rec.FeedbackType,
			csvQuote(rec.FeedbackText),
			rating,
			csvQuote(rec.EmailID),
			ISOTimestamp(rec.CreatedAt),
		))
	}
	return b.String()
}

// csvQuote double-quotes a string field, escaping internal quotes by doubling.
func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ISOTimestamp renders a record timestamp the way the dashboard stores it, as
// an ISO-8601 UTC string. Date filters prefix-match against this form.
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
