package handlers

import (
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/AIStudyPlans/scheduled-backend/errors"
	"github.com/AIStudyPlans/scheduled-backend/store"
	"github.com/AIStudyPlans/scheduled-backend/types"
	"github.com/gin-gonic/gin"
)

// ContactHandler handles the support and sales contact forms. Both forms land
// in the feedback store so the admin dashboard shows them alongside regular
// feedback.
type ContactHandler struct {
	feedbackStore store.FeedbackStore
}

func NewContactHandler(feedbackStore store.FeedbackStore) *ContactHandler {
	return &ContactHandler{feedbackStore: feedbackStore}
}

// Support godoc
// @Summary      Submit a support request
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        body  body      types.ContactRequest  true  "Contact payload"
// @Success      201   {object}  types.StatusResponse
// @Failure      400   {object}  types.ErrorResponse
// @Router       /v1/contact/support [post]
func (h *ContactHandler) Support(c *gin.Context) {
	h.submit(c, types.FeedbackTypeGeneral)
}

// Sales godoc
// @Summary      Submit a sales inquiry
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        body  body      types.ContactRequest  true  "Contact payload"
// @Success      201   {object}  types.StatusResponse
// @Failure      400   {object}  types.ErrorResponse
// @Router       /v1/contact/sales [post]
func (h *ContactHandler) Sales(c *gin.Context) {
	h.submit(c, types.FeedbackTypeFeatureRequest)
}

func (h *ContactHandler) submit(c *gin.Context, feedbackType types.FeedbackType) {
	var req types.ContactRequest
	if !bindJSONOrError(c, &req) {
		return
	}

	if !isValidEmail(req.Email) {
		_ = c.Error(apperrors.ValidationFailed("validation_failed", "email address is not valid"))
		return
	}

	rec := &types.FeedbackRecord{
		FeedbackType: feedbackType,
		FeedbackText: contactText(req),
	}

	if _, err := h.feedbackStore.AddSubmission(c.Request.Context(), rec, req.Name, req.Email); err != nil {
		_ = c.Error(apperrors.NewDatabaseError(err))
		return
	}

	c.JSON(http.StatusCreated, types.StatusResponse{Status: "received"})
}

// contactText folds the structured form fields into the free-text body so
// nothing the visitor typed is lost in the shared feedback table.
func contactText(req types.ContactRequest) string {
	var b strings.Builder
	if s := strings.TrimSpace(req.Subject); s != "" {
		fmt.Fprintf(&b, "[%s] ", s)
	}
	b.WriteString(strings.TrimSpace(req.Message))
	if s := strings.TrimSpace(req.Company); s != "" {
		fmt.Fprintf(&b, "\n\nCompany: %s", s)
	}
	if s := strings.TrimSpace(req.Phone); s != "" {
		fmt.Fprintf(&b, "\nPhone: %s", s)
	}
	if s := strings.TrimSpace(req.IssueType); s != "" {
		fmt.Fprintf(&b, "\nIssue type: %s", s)
	}
	return b.String()
}
