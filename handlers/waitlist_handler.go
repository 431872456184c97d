package handlers

import (
	"net/http"
	"strings"
	"time"

	apperrors "github.com/AIStudyPlans/scheduled-backend/errors"
	"github.com/AIStudyPlans/scheduled-backend/logger"
	"github.com/AIStudyPlans/scheduled-backend/services"
	"github.com/AIStudyPlans/scheduled-backend/store"
	"github.com/AIStudyPlans/scheduled-backend/types"
	"github.com/gin-gonic/gin"
)

// WaitlistHandler handles waitlist signup.
type WaitlistHandler struct {
	waitlistStore store.WaitlistStore
	email         services.EmailSender
	supabase      *services.SupabaseService
	events        services.EventPublisher
	appURL        string
}

// NewWaitlistHandler creates a new WaitlistHandler. supabase and events may be
// nil when those integrations are not configured.
func NewWaitlistHandler(
	waitlistStore store.WaitlistStore,
	email services.EmailSender,
	supabase *services.SupabaseService,
	events services.EventPublisher,
	appURL string,
) *WaitlistHandler {
	return &WaitlistHandler{
		waitlistStore: waitlistStore,
		email:         email,
		supabase:      supabase,
		events:        events,
		appURL:        appURL,
	}
}

// Join godoc
// @Summary      Join the waitlist
// @Description  Registers a signup, sends the welcome email, and starts the feedback campaign
// @Tags         waitlist
// @Accept       json
// @Produce      json
// @Param        body  body      types.WaitlistSignup  true  "Signup payload"
// @Success      201   {object}  types.SignupResponse
// @Failure      400   {object}  types.ErrorResponse
// @Failure      409   {object}  types.ErrorResponse
// @Router       /v1/waitlist [post]
func (h *WaitlistHandler) Join(c *gin.Context) {
	var req types.WaitlistSignup
	if !bindJSONOrError(c, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	if req.Name == "" {
		_ = c.Error(apperrors.ValidationFailed("validation_failed", "name must not be blank"))
		return
	}
	if !isValidEmail(req.Email) {
		_ = c.Error(apperrors.ValidationFailed("validation_failed", "email address is not valid"))
		return
	}

	log := logger.GetLogger()
	ctx := c.Request.Context()

	user, err := h.waitlistStore.Add(ctx, req.Name, req.Email, strings.TrimSpace(req.Source))
	if err != nil {
		if err == store.ErrDuplicateEmail {
			_ = c.Error(apperrors.NewConflictError("Email already on the waitlist", "use a different address"))
			return
		}
		_ = c.Error(apperrors.NewDatabaseError(err))
		return
	}

	// Welcome send failure is not a signup failure: the user is stored, and
	// the campaign simply never starts until a later signup path retries.
	if msg, err := services.WelcomeEmail(user, h.appURL); err != nil {
		log.Errorw("Failed to render welcome email", "userId", user.ID, "error", err)
	} else if _, err := h.email.Send(ctx, msg); err != nil {
		log.Errorw("Failed to send welcome email",
			"userId", user.ID,
			"email", logger.MaskEmail(user.Email),
			"error", err)
	} else if err := h.waitlistStore.StartFeedbackCampaign(ctx, user.ID, time.Now().UTC()); err != nil {
		log.Errorw("Failed to start feedback campaign", "userId", user.ID, "error", err)
	}

	if h.supabase != nil {
		if err := h.supabase.MirrorSignup(ctx, user); err != nil {
			log.Warnw("Supabase mirror failed", "userId", user.ID, "error", err)
		}
	}

	if h.events != nil {
		payload := map[string]any{"userId": user.ID, "source": user.Source}
		if err := h.events.Publish(ctx, types.EventWaitlistJoined, payload); err != nil {
			log.Warnw("Failed to publish waitlist event", "userId", user.ID, "error", err)
		}
	}

	c.JSON(http.StatusCreated, types.SignupResponse{
		Success: true,
		Message: "You're on the waitlist! Check your inbox for a confirmation email.",
	})
}
