// Package memory provides in-process implementations of the store interfaces.
// Data lives for the lifetime of the process; a restart discards everything.
// This matches the demo deployment mode and is the default driver.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AIStudyPlans/scheduled-backend/store"
	"github.com/AIStudyPlans/scheduled-backend/types"
	"github.com/google/uuid"
)

// Placeholder identity attached to anonymous submissions (contact forms and
// widget submissions without a waitlist user).
const (
	placeholderName  = "Test User"
	placeholderEmail = "test@example.com"
)

var _ store.FeedbackStore = (*FeedbackStore)(nil)

// FeedbackStore is a mutex-guarded, newest-first slice of feedback records.
type FeedbackStore struct {
	mu      sync.RWMutex
	records []types.FeedbackRecord
}

// NewFeedbackStore creates an empty in-memory feedback store.
func NewFeedbackStore() *FeedbackStore {
	return &FeedbackStore{}
}

// AddSubmission stores rec with a denormalized submitter snapshot, prepending
// so the newest record sits at index 0.
func (s *FeedbackStore) AddSubmission(ctx context.Context, rec *types.FeedbackRecord, userName, userEmail string) (*types.FeedbackRecord, error) {
	if rec == nil {
		return nil, fmt.Errorf("nil feedback record")
	}

	stored := *rec
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if userName == "" {
		userName = placeholderName
	}
	if userEmail == "" {
		userEmail = placeholderEmail
	}
	stored.User = types.UserSnapshot{
		Name:      userName,
		Email:     userEmail,
		CreatedAt: stored.CreatedAt,
	}

	s.mu.Lock()
	s.records = append([]types.FeedbackRecord{stored}, s.records...)
	s.mu.Unlock()

	return &stored, nil
}

// GetAll returns the requested page of records matching f plus the total
// match count. Date bounds are matched as ISO-string prefixes against the
// record timestamp; see ExportCSV for the chronological variant.
func (s *FeedbackStore) GetAll(ctx context.Context, page, pageSize int, f types.FeedbackFilters) (*types.FeedbackPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := filterRecords(s.records, f, datePrefixMatch)

	start := (page - 1) * pageSize
	end := start + pageSize
	pageData := []types.FeedbackRecord{}
	if start < len(matched) {
		if end > len(matched) {
			end = len(matched)
		}
		pageData = append(pageData, matched[start:end]...)
	}

	return &types.FeedbackPage{Data: pageData, Count: len(matched)}, nil
}

// GetStats aggregates dashboard statistics over all records. The 14-day
// histogram buckets are generated backward from now, oldest day first.
func (s *FeedbackStore) GetStats(ctx context.Context, now time.Time) (*types.FeedbackStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &types.FeedbackStats{
		TotalFeedback:    len(s.records),
		FeedbackByType:   map[types.FeedbackType]int{},
		FeedbackByRating: map[string]int{},
	}

	ratingSum, ratingCount := 0, 0
	for _, rec := range s.records {
		stats.FeedbackByType[rec.FeedbackType]++
		if rec.Rating != nil {
			ratingSum += *rec.Rating
			ratingCount++
			stats.FeedbackByRating[strconv.Itoa(*rec.Rating)]++
		}
	}
	if ratingCount > 0 {
		avg := float64(ratingSum) / float64(ratingCount)
		stats.AverageRating = &avg
	}

	for i := 13; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).UTC().Format("2006-01-02")
		count := 0
		for _, rec := range s.records {
			if strings.HasPrefix(store.ISOTimestamp(rec.CreatedAt), day) {
				count++
			}
		}
		stats.FeedbackByDay = append(stats.FeedbackByDay, types.DayCount{Date: day, Count: count})
	}

	// Mirrors the dashboard's current definition: the full total rather than
	// a time-windowed count. See DESIGN.md.
	stats.RecentFeedback = len(s.records)

	return stats, nil
}

// GetTextAnalytics returns the ten most frequent keywords across all feedback
// text.
func (s *FeedbackStore) GetTextAnalytics(ctx context.Context) (*types.TextAnalytics, error) {
	s.mu.RLock()
	texts := make([]string, 0, len(s.records))
	for _, rec := range s.records {
		texts = append(texts, rec.FeedbackText)
	}
	s.mu.RUnlock()

	return &types.TextAnalytics{Keywords: store.ExtractKeywords(texts)}, nil
}

// ExportCSV serializes all records matching f. Its date filter is a true
// chronological range, intentionally different from GetAll's prefix match;
// both behaviors are carried from the dashboard contract (see DESIGN.md).
// Returns the CSV text and the number of data rows.
func (s *FeedbackStore) ExportCSV(ctx context.Context, f types.FeedbackFilters) (string, int, error) {
	s.mu.RLock()
	matched := filterRecords(s.records, f, dateRangeMatch)
	s.mu.RUnlock()

	return store.RenderCSV(matched), len(matched), nil
}

// ClearAll empties the store. Irreversible; there is no soft delete.
func (s *FeedbackStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
	return nil
}

// dateMatcher applies one of the two date-range behaviors to a record.
type dateMatcher func(created time.Time, startDate, endDate string) bool

// datePrefixMatch is GetAll's behavior: each set bound must independently
// prefix-match the ISO timestamp, which for multi-day ranges degenerates to a
// single-day equality filter. Carried as-is.
func datePrefixMatch(created time.Time, startDate, endDate string) bool {
	iso := store.ISOTimestamp(created)
	if startDate != "" && !strings.HasPrefix(iso, startDate) {
		return false
	}
	if endDate != "" && !strings.HasPrefix(iso, endDate) {
		return false
	}
	return true
}

// dateRangeMatch is ExportCSV's behavior: a true chronological comparison
// against the parsed day bounds.
func dateRangeMatch(created time.Time, startDate, endDate string) bool {
	if startDate != "" {
		if start, err := time.Parse("2006-01-02", startDate); err == nil {
			if created.Before(start) {
				return false
			}
		}
	}
	if endDate != "" {
		if end, err := time.Parse("2006-01-02", endDate); err == nil {
			if created.After(end) {
				return false
			}
		}
	}
	return true
}

// filterRecords applies the filter predicates in order: type, rating range,
// date range (per the supplied matcher), then case-insensitive substring
// search. Records are returned in stored (newest-first) order.
func filterRecords(records []types.FeedbackRecord, f types.FeedbackFilters, dates dateMatcher) []types.FeedbackRecord {
	matched := make([]types.FeedbackRecord, 0, len(records))
	term := strings.ToLower(f.SearchTerm)
	for _, rec := range records {
		if f.Type != "" && rec.FeedbackType != f.Type {
			continue
		}
		if f.HasRatingFilter() {
			// Rating bounds only ever match rated records.
			if rec.Rating == nil {
				continue
			}
			if f.MinRating > 0 && *rec.Rating < f.MinRating {
				continue
			}
			if f.MaxRating > 0 && *rec.Rating > f.MaxRating {
				continue
			}
		}
		if !dates(rec.CreatedAt, f.StartDate, f.EndDate) {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(rec.FeedbackText), term) &&
			!strings.Contains(strings.ToLower(rec.User.Name), term) &&
			!strings.Contains(strings.ToLower(rec.User.Email), term) {
			continue
		}
		matched = append(matched, rec)
	}
	return matched
}
