package handlers

import (
	"net/http"

	apperrors "github.com/AIStudyPlans/scheduled-backend/errors"
	"github.com/AIStudyPlans/scheduled-backend/logger"
	"github.com/AIStudyPlans/scheduled-backend/services"
	"github.com/AIStudyPlans/scheduled-backend/store"
	"github.com/AIStudyPlans/scheduled-backend/types"
	"github.com/gin-gonic/gin"
)

// FeedbackHandler handles feedback submitted through the campaign email links.
type FeedbackHandler struct {
	feedbackStore store.FeedbackStore
	waitlistStore store.WaitlistStore
	events        services.EventPublisher
}

func NewFeedbackHandler(
	feedbackStore store.FeedbackStore,
	waitlistStore store.WaitlistStore,
	events services.EventPublisher,
) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackStore: feedbackStore,
		waitlistStore: waitlistStore,
		events:        events,
	}
}

// Submit godoc
// @Summary      Submit feedback
// @Description  Stores a feedback record with a snapshot of the submitter's waitlist identity
// @Tags         feedback
// @Accept       json
// @Produce      json
// @Param        body  body      types.FeedbackCreate  true  "Feedback payload"
// @Success      201   {object}  types.FeedbackRecord
// @Failure      400   {object}  types.ErrorResponse
// @Router       /v1/feedback [post]
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req types.FeedbackCreate
	if !bindJSONOrError(c, &req) {
		return
	}

	if !req.FeedbackType.IsValid() {
		_ = c.Error(apperrors.ValidationFailed("validation_failed", "feedbackType must be one of feature_request, general, improvement, bug"))
		return
	}

	log := logger.GetLogger()
	ctx := c.Request.Context()

	// The submitter may have been cleared from the waitlist since the email
	// went out. Store the record anyway with the placeholder identity.
	var userName, userEmail string
	user, err := h.waitlistStore.GetByID(ctx, req.UserID)
	switch {
	case err == nil:
		userName, userEmail = user.Name, user.Email
	case err == store.ErrNotFound:
		log.Warnw("Feedback from unknown waitlist user", "userId", req.UserID)
	default:
		_ = c.Error(apperrors.NewDatabaseError(err))
		return
	}

	rec := &types.FeedbackRecord{
		FeedbackType:   req.FeedbackType,
		FeedbackText:   req.FeedbackText,
		Rating:         req.Rating,
		WaitlistUserID: req.UserID,
		EmailID:        req.EmailID,
	}

	stored, err := h.feedbackStore.AddSubmission(ctx, rec, userName, userEmail)
	if err != nil {
		_ = c.Error(apperrors.NewDatabaseError(err))
		return
	}

	if h.events != nil {
		payload := map[string]any{
			"feedbackId": stored.ID,
			"type":       stored.FeedbackType,
			"userId":     stored.WaitlistUserID,
		}
		if err := h.events.Publish(ctx, types.EventFeedbackCreated, payload); err != nil {
			log.Warnw("Failed to publish feedback event", "feedbackId", stored.ID, "error", err)
		}
	}

	c.JSON(http.StatusCreated, stored)
}
