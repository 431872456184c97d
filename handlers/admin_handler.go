package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/AIStudyPlans/scheduled-backend/errors"
	"github.com/AIStudyPlans/scheduled-backend/logger"
	"github.com/AIStudyPlans/scheduled-backend/services"
	"github.com/AIStudyPlans/scheduled-backend/store"
	"github.com/AIStudyPlans/scheduled-backend/types"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AdminHandler serves the admin dashboard API: feedback listing, stats, text
// analytics, CSV export, the live event stream, and the destructive clear-all.
type AdminHandler struct {
	feedbackStore store.FeedbackStore
	waitlistStore store.WaitlistStore
	campaign      *services.CampaignService
	archive       *services.ExportArchiveService
	subscriber    services.EventSubscriber
}

// NewAdminHandler creates an AdminHandler. archive and subscriber may be nil
// when object storage or Redis are not configured.
func NewAdminHandler(
	feedbackStore store.FeedbackStore,
	waitlistStore store.WaitlistStore,
	campaign *services.CampaignService,
	archive *services.ExportArchiveService,
	subscriber services.EventSubscriber,
) *AdminHandler {
	return &AdminHandler{
		feedbackStore: feedbackStore,
		waitlistStore: waitlistStore,
		campaign:      campaign,
		archive:       archive,
		subscriber:    subscriber,
	}
}

// ListFeedback godoc
// @Summary      List feedback
// @Description  Returns one page of feedback matching the query filters
// @Tags         admin
// @Produce      json
// @Param        page      query     int     false  "Page number (1-based)"
// @Param        pageSize  query     int     false  "Page size (max 100)"
// @Param        type      query     string  false  "Feedback type"
// @Success      200       {object}  types.FeedbackPage
// @Router       /v1/admin/feedback [get]
func (h *AdminHandler) ListFeedback(c *gin.Context) {
	var filters types.FeedbackFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		_ = c.Error(apperrors.ValidationFailed("invalid_query_parameters", err.Error()))
		return
	}
	if filters.Type != "" && !filters.Type.IsValid() {
		_ = c.Error(apperrors.ValidationFailed("invalid_query_parameters", "unknown feedback type"))
		return
	}

	page := parsePositiveInt(c.Query("page"), 1)
	pageSize := parsePositiveInt(c.Query("pageSize"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	result, err := h.feedbackStore.GetAll(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		_ = c.Error(apperrors.NewDatabaseError(err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// Stats godoc
// @Summary      Feedback statistics
// @Tags         admin
// @Produce      json
// @Success      200  {object}  types.FeedbackStats
// @Router       /v1/admin/feedback/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.feedbackStore.GetStats(c.Request.Context(), time.Now().UTC())
	if err != nil {
		_ = c.Error(apperrors.NewDatabaseError(err))
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Analytics godoc
// @Summary      Feedback text analytics
// @Tags         admin
// @Produce      json
// @Success      200  {object}  types.TextAnalytics
// @Router       /v1/admin/feedback/analytics [get]
func (h *AdminHandler) Analytics(c *gin.Context) {
	analytics, err := h.feedbackStore.GetTextAnalytics(c.Request.Context())
	if err != nil {
		_ = c.Error(apperrors.NewDatabaseError(err))
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// ExportCSV godoc
// @Summary      Export feedback as CSV
// @Description  Streams a CSV download, or with archive=true uploads it to object storage and returns a presigned link
// @Tags         admin
// @Produce      text/csv
// @Param        archive  query  bool  false  "Upload to object storage instead of streaming"
// @Success      200
// @Router       /v1/admin/feedback/export [get]
func (h *AdminHandler) ExportCSV(c *gin.Context) {
	var filters types.FeedbackFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		_ = c.Error(apperrors.ValidationFailed("invalid_query_parameters", err.Error()))
		return
	}

	csvData, rows, err := h.feedbackStore.ExportCSV(c.Request.Context(), filters)
	if err != nil {
		_ = c.Error(apperrors.NewDatabaseError(err))
		return
	}

	if c.Query("archive") == "true" {
		if h.archive == nil {
			_ = c.Error(apperrors.ValidationFailed("archive_not_configured", "object storage is not configured"))
			return
		}
		resp, err := h.archive.ArchiveCSV(c.Request.Context(), csvData, rows, time.Now().UTC())
		if err != nil {
			_ = c.Error(apperrors.Wrap(err, apperrors.ServerError, "Failed to archive export"))
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	filename := fmt.Sprintf("feedback-export-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csvData))
}

// ClearData godoc
// @Summary      Clear all feedback
// @Description  Irreversibly deletes every feedback record
// @Tags         admin
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /v1/admin/clear-data [post]
func (h *AdminHandler) ClearData(c *gin.Context) {
	if err := h.feedbackStore.ClearAll(c.Request.Context()); err != nil {
		_ = c.Error(apperrors.NewDatabaseError(err))
		return
	}
	logger.GetLogger().Infow("All feedback cleared by admin")
	c.JSON(http.StatusOK, types.StatusResponse{Status: "cleared"})
}

// RunCampaign godoc
// @Summary      Trigger a campaign pass
// @Description  Runs one drip-campaign dispatch pass immediately
// @Tags         admin
// @Produce      json
// @Success      200  {object}  map[string]int
// @Router       /v1/admin/campaign/run [post]
func (h *AdminHandler) RunCampaign(c *gin.Context) {
	dispatched, err := h.campaign.RunOnce(c.Request.Context(), time.Now().UTC())
	if err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.ServerError, "Campaign pass failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"dispatched": dispatched})
}

// Stream godoc
// @Summary      Live event stream
// @Description  Server-sent events for feedback, signup, and campaign activity
// @Tags         admin
// @Produce      text/event-stream
// @Router       /v1/admin/feedback/stream [get]
func (h *AdminHandler) Stream(c *gin.Context) {
	if h.subscriber == nil {
		_ = c.Error(apperrors.ValidationFailed("stream_not_configured", "event streaming requires Redis"))
		return
	}

	events, err := h.subscriber.Subscribe(c.Request.Context())
	if err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.ServerError, "Failed to subscribe to events"))
		return
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(event.Type), event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
