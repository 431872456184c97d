package services

import (
	"context"
	"fmt"
	"time"

	"github.com/AIStudyPlans/scheduled-backend/config"
	"github.com/AIStudyPlans/scheduled-backend/logger"
	"github.com/AIStudyPlans/scheduled-backend/types"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

// SupabaseService mirrors waitlist signups into a Supabase table. The mirror
// is best-effort: the primary store has already accepted the signup, so
// failures here are logged and never surfaced to the signup path.
type SupabaseService struct {
	client    *supabase.Client
	table     string
	isEnabled bool
	logger    *zap.SugaredLogger
}

// NewSupabaseService creates the mirror when the config carries Supabase
// credentials; otherwise it returns a disabled instance whose methods no-op.
func NewSupabaseService(cfg config.SupabaseConfig) (*SupabaseService, error) {
	s := &SupabaseService{
		table:  cfg.Table,
		logger: logger.GetLogger().Named("supabase"),
	}
	if !cfg.Enabled() {
		return s, nil
	}

	client, err := supabase.NewClient(cfg.URL, cfg.AnonKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	s.client = client
	s.isEnabled = true
	return s, nil
}

// IsEnabled returns whether the Supabase mirror is active.
func (s *SupabaseService) IsEnabled() bool {
	return s.isEnabled
}

// MirrorSignup writes a copy of the signup row to the configured table.
func (s *SupabaseService) MirrorSignup(ctx context.Context, user *types.WaitlistUser) error {
	if !s.isEnabled {
		return nil
	}

	payload := map[string]any{
		"name":       user.Name,
		"email":      user.Email,
		"source":     user.Source,
		"created_at": user.CreatedAt.Format(time.RFC3339),
	}

	_, _, err := s.client.From(s.table).Insert(payload, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("supabase mirror insert failed: %w", err)
	}

	s.logger.Debugw("Mirrored waitlist signup",
		"table", s.table,
		"email", logger.MaskEmail(user.Email))
	return nil
}
