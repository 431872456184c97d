// Package postgres provides pgx-backed implementations of the store
// interfaces, selected with PERSISTENCE_DRIVER=postgres.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AIStudyPlans/scheduled-backend/store"
	"github.com/AIStudyPlans/scheduled-backend/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the stores use. pgxmock satisfies it
// in tests.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	placeholderName  = "Test User"
	placeholderEmail = "test@example.com"
)

var _ store.FeedbackStore = (*FeedbackStore)(nil)

// FeedbackStore implements store.FeedbackStore on PostgreSQL.
type FeedbackStore struct {
	pool PgxPool
}

// NewFeedbackStore creates a feedback store over the given pool.
func NewFeedbackStore(pool PgxPool) *FeedbackStore {
	return &FeedbackStore{pool: pool}
}

const feedbackColumns = `id, created_at, feedback_type, feedback_text, rating, waitlist_user_id, email_id, user_name, user_email`

// AddSubmission inserts rec with a denormalized submitter snapshot.
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
	stored.User = types.UserSnapshot{Name: userName, Email: userEmail, CreatedAt: stored.CreatedAt}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO feedback (id, created_at, feedback_type, feedback_text, rating, waitlist_user_id, email_id, user_name, user_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		stored.ID, stored.CreatedAt, stored.FeedbackType, stored.FeedbackText,
		stored.Rating, stored.WaitlistUserID, stored.EmailID, userName, userEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("insert feedback: %w", err)
	}
	return &stored, nil
}

// dateMode selects which of the two carried date-filter behaviors a query
// uses: GetAll prefix-matches the ISO timestamp string, ExportCSV compares
// chronologically. See DESIGN.md.
type dateMode int

const (
	datePrefix dateMode = iota
	dateRange
)

// buildWhere renders the filter predicates as a WHERE clause. Returned args
// line up with the $1.. placeholders.
func buildWhere(f types.FeedbackFilters, mode dateMode) (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Type != "" {
		conds = append(conds, "feedback_type = "+arg(string(f.Type)))
	}
	if f.HasRatingFilter() {
		conds = append(conds, "rating IS NOT NULL")
		if f.MinRating > 0 {
			conds = append(conds, "rating >= "+arg(f.MinRating))
		}
		if f.MaxRating > 0 {
			conds = append(conds, "rating <= "+arg(f.MaxRating))
		}
	}
	switch mode {
	case datePrefix:
		if f.StartDate != "" {
			conds = append(conds, isoExpr+" LIKE "+arg(f.StartDate+"%"))
		}
		if f.EndDate != "" {
			conds = append(conds, isoExpr+" LIKE "+arg(f.EndDate+"%"))
		}
	case dateRange:
		if start, err := time.Parse("2006-01-02", f.StartDate); err == nil && f.StartDate != "" {
			conds = append(conds, "created_at >= "+arg(start))
		}
		if end, err := time.Parse("2006-01-02", f.EndDate); err == nil && f.EndDate != "" {
			conds = append(conds, "created_at <= "+arg(end))
		}
	}
	if f.SearchTerm != "" {
		term := arg(strings.ToLower(f.SearchTerm))
		conds = append(conds, fmt.Sprintf(
			"(position(%[1]s in lower(feedback_text)) > 0 OR position(%[1]s in lower(user_name)) > 0 OR position(%[1]s in lower(user_email)) > 0)",
			term))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// isoExpr renders created_at the way the dashboard stored it, so the prefix
// filter sees the same string shape as the in-memory driver.
const isoExpr = `to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"')`

// GetAll returns one page of matching records plus the total match count.
func (s *FeedbackStore) GetAll(ctx context.Context, page, pageSize int, f types.FeedbackFilters) (*types.FeedbackPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	where, args := buildWhere(f, datePrefix)

	var count int
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM feedback"+where, args...).Scan(&count); err != nil {
		return nil, fmt.Errorf("count feedback: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM feedback%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d",
		feedbackColumns, where, len(args)+1, len(args)+2)
	rows, err := s.pool.Query(ctx, query, append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	data := []types.FeedbackRecord{}
	for rows.Next() {
		rec, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		data = append(data, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}

	return &types.FeedbackPage{Data: data, Count: count}, nil
}

// GetStats aggregates dashboard statistics. Aggregation happens in Go over a
// single scan so the histogram and rating logic stay identical to the memory
// driver.
func (s *FeedbackStore) GetStats(ctx context.Context, now time.Time) (*types.FeedbackStats, error) {
	rows, err := s.pool.Query(ctx, `SELECT created_at, feedback_type, rating FROM feedback`)
	if err != nil {
		return nil, fmt.Errorf("query feedback stats: %w", err)
	}
	defer rows.Close()

	stats := &types.FeedbackStats{
		FeedbackByType:   map[types.FeedbackType]int{},
		FeedbackByRating: map[string]int{},
	}

	type row struct {
		created time.Time
		rating  *int
	}
	var all []row
	ratingSum, ratingCount := 0, 0
	for rows.Next() {
		var created time.Time
		var ftype types.FeedbackType
		var rating *int
		if err := rows.Scan(&created, &ftype, &rating); err != nil {
			return nil, fmt.Errorf("scan feedback stats: %w", err)
		}
		stats.TotalFeedback++
		stats.FeedbackByType[ftype]++
		if rating != nil {
			ratingSum += *rating
			ratingCount++
			stats.FeedbackByRating[fmt.Sprintf("%d", *rating)]++
		}
		all = append(all, row{created: created, rating: rating})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback stats: %w", err)
	}

	if ratingCount > 0 {
		avg := float64(ratingSum) / float64(ratingCount)
		stats.AverageRating = &avg
	}

	for i := 13; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).UTC().Format("2006-01-02")
		count := 0
		for _, r := range all {
			if strings.HasPrefix(store.ISOTimestamp(r.created), day) {
				count++
			}
		}
		stats.FeedbackByDay = append(stats.FeedbackByDay, types.DayCount{Date: day, Count: count})
	}

	stats.RecentFeedback = stats.TotalFeedback

	return stats, nil
}

// GetTextAnalytics returns the top keywords across all feedback text.
func (s *FeedbackStore) GetTextAnalytics(ctx context.Context) (*types.TextAnalytics, error) {
	rows, err := s.pool.Query(ctx, `SELECT feedback_text FROM feedback`)
	if err != nil {
		return nil, fmt.Errorf("query feedback text: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan feedback text: %w", err)
		}
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback text: %w", err)
	}

	return &types.TextAnalytics{Keywords: store.ExtractKeywords(texts)}, nil
}

// ExportCSV serializes all matching records. Date bounds are chronological
// here, unlike GetAll.
func (s *FeedbackStore) ExportCSV(ctx context.Context, f types.FeedbackFilters) (string, int, error) {
	where, args := buildWhere(f, dateRange)

	query := fmt.Sprintf("SELECT %s FROM feedback%s ORDER BY created_at DESC, id", feedbackColumns, where)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return "", 0, fmt.Errorf("query feedback export: %w", err)
	}
	defer rows.Close()

	var records []types.FeedbackRecord
	for rows.Next() {
		rec, err := scanFeedback(rows)
		if err != nil {
			return "", 0, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return "", 0, fmt.Errorf("iterate feedback export: %w", err)
	}

	return store.RenderCSV(records), len(records), nil
}

// ClearAll deletes every feedback record. Irreversible.
func (s *FeedbackStore) ClearAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM feedback`); err != nil {
		return fmt.Errorf("clear feedback: %w", err)
	}
	return nil
}

func scanFeedback(rows pgx.Rows) (types.FeedbackRecord, error) {
	var rec types.FeedbackRecord
	if err := rows.Scan(
		&rec.ID, &rec.CreatedAt, &rec.FeedbackType, &rec.FeedbackText,
		&rec.Rating, &rec.WaitlistUserID, &rec.EmailID,
		&rec.User.Name, &rec.User.Email,
	); err != nil {
		return rec, fmt.Errorf("scan feedback: %w", err)
	}
	rec.User.CreatedAt = rec.CreatedAt
	return rec, nil
}
