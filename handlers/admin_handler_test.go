package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AIStudyPlans/scheduled-backend/config"
	"github.com/AIStudyPlans/scheduled-backend/middleware"
	"github.com/AIStudyPlans/scheduled-backend/services"
	"github.com/AIStudyPlans/scheduled-backend/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func adminRouter(h *AdminHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/v1/admin/feedback", h.ListFeedback)
	r.GET("/v1/admin/feedback/stats", h.Stats)
	r.GET("/v1/admin/feedback/analytics", h.Analytics)
	r.GET("/v1/admin/feedback/export", h.ExportCSV)
	r.POST("/v1/admin/clear-data", h.ClearData)
	r.POST("/v1/admin/campaign/run", h.RunCampaign)
	return r
}

func adminGet(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestAdminListFeedback_ForwardsFiltersAndPaging(t *testing.T) {
	feedback := new(mockFeedbackStore)
	feedback.On("GetAll", mock.Anything, 2, 10,
		types.FeedbackFilters{Type: types.FeedbackTypeBug, MinRating: 3}).
		Return(&types.FeedbackPage{Data: []types.FeedbackRecord{{ID: "f-1"}}, Count: 11}, nil)

	h := NewAdminHandler(feedback, new(mockWaitlistStore), nil, nil, nil)
	w := adminGet(adminRouter(h), "/v1/admin/feedback?page=2&pageSize=10&type=bug&minRating=3")

	require.Equal(t, http.StatusOK, w.Code)

	var page types.FeedbackPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 11, page.Count)
	feedback.AssertExpectations(t)
}

func TestAdminListFeedback_DefaultsAndCaps(t *testing.T) {
	feedback := new(mockFeedbackStore)
	feedback.On("GetAll", mock.Anything, 1, maxPageSize, types.FeedbackFilters{}).
		Return(&types.FeedbackPage{Data: nil, Count: 0}, nil)

	h := NewAdminHandler(feedback, new(mockWaitlistStore), nil, nil, nil)
	w := adminGet(adminRouter(h), "/v1/admin/feedback?pageSize=500")

	assert.Equal(t, http.StatusOK, w.Code)
	feedback.AssertExpectations(t)
}

func TestAdminListFeedback_UnknownTypeRejected(t *testing.T) {
	h := NewAdminHandler(new(mockFeedbackStore), new(mockWaitlistStore), nil, nil, nil)
	w := adminGet(adminRouter(h), "/v1/admin/feedback?type=rant")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminStats(t *testing.T) {
	avg := 4.2
	feedback := new(mockFeedbackStore)
	feedback.On("GetStats", mock.Anything, mock.Anything).
		Return(&types.FeedbackStats{TotalFeedback: 12, AverageRating: &avg}, nil)

	h := NewAdminHandler(feedback, new(mockWaitlistStore), nil, nil, nil)
	w := adminGet(adminRouter(h), "/v1/admin/feedback/stats")

	require.Equal(t, http.StatusOK, w.Code)

	var stats types.FeedbackStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 12, stats.TotalFeedback)
}

func TestAdminAnalytics(t *testing.T) {
	feedback := new(mockFeedbackStore)
	feedback.On("GetTextAnalytics", mock.Anything).
		Return(&types.TextAnalytics{Keywords: []types.KeywordCount{{Keyword: "planner", Count: 4}}}, nil)

	h := NewAdminHandler(feedback, new(mockWaitlistStore), nil, nil, nil)
	w := adminGet(adminRouter(h), "/v1/admin/feedback/analytics")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "planner")
}

func TestAdminExportCSV_StreamsDownload(t *testing.T) {
	csvData := "User ID,Name,Email,Feedback Type,Feedback Text,Rating,Email ID,Date\n"
	feedback := new(mockFeedbackStore)
	feedback.On("ExportCSV", mock.Anything, types.FeedbackFilters{}).
		Return(csvData, 0, nil)

	h := NewAdminHandler(feedback, new(mockWaitlistStore), nil, nil, nil)
	w := adminGet(adminRouter(h), "/v1/admin/feedback/export")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, csvData, w.Body.String())
}

func TestAdminExportCSV_ArchiveWithoutStorageRejected(t *testing.T) {
	feedback := new(mockFeedbackStore)
	feedback.On("ExportCSV", mock.Anything, types.FeedbackFilters{}).
		Return("header\n", 0, nil)

	h := NewAdminHandler(feedback, new(mockWaitlistStore), nil, nil, nil)
	w := adminGet(adminRouter(h), "/v1/admin/feedback/export?archive=true")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminClearData(t *testing.T) {
	feedback := new(mockFeedbackStore)
	feedback.On("ClearAll", mock.Anything).Return(nil)

	h := NewAdminHandler(feedback, new(mockWaitlistStore), nil, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/clear-data", nil)
	adminRouter(h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cleared")
	feedback.AssertExpectations(t)
}

func TestAdminRunCampaign(t *testing.T) {
	waitlist := new(mockWaitlistStore)
	waitlist.On("UsersDueForNextEmail", mock.Anything, mock.Anything).
		Return([]types.WaitlistUser{}, nil)

	pool := services.NewWorkerPool(config.WorkerPoolConfig{MaxWorkers: 1, QueueSize: 1})
	pool.Start()
	defer func() { _ = pool.Shutdown(context.Background()) }()

	campaign := services.NewCampaignService(
		waitlist, new(mockEmailSender), pool, nil,
		config.CampaignConfig{IntervalMinutes: 60, BatchSize: 10, InitialDelayDays: 5, StepDelayDays: 10},
		testAppURL,
	)

	h := NewAdminHandler(new(mockFeedbackStore), waitlist, campaign, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/campaign/run", nil)
	adminRouter(h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"dispatched": 0}`, w.Body.String())
}
