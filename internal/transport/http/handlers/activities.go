package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FernandoZnga/schedula/internal/core/domain"
	"github.com/FernandoZnga/schedula/internal/core/port"
	"github.com/FernandoZnga/schedula/internal/transport/http/middleware"
	"github.com/FernandoZnga/schedula/internal/usecase"
)

// ActivityHandler exposes the activity lifecycle endpoints.
type ActivityHandler struct {
	activities *usecase.ActivityService
}

// NewActivityHandler constructs ActivityHandler.
func NewActivityHandler(activities *usecase.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// RegisterRoutes binds activity routes. The group must already carry the
// authentication middleware.
func (h *ActivityHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/activities", h.create)
	r.GET("/activities", h.list)
	r.GET("/activities/:id", h.get)
	r.PATCH("/activities/:id", h.update)
	r.POST("/activities/:id/complete", h.complete)
	r.DELETE("/activities/:id", h.remove)
}

var activityValidationCases = []ErrorCase{
	{Err: usecase.ErrTitleRequired, Status: http.StatusBadRequest, Message: "title is required"},
	{Err: usecase.ErrInvalidActivityType, Status: http.StatusBadRequest, Message: "invalid activity type"},
	{Err: usecase.ErrInvalidOutcome, Status: http.StatusBadRequest, Message: "invalid completion outcome"},
	{Err: usecase.ErrActivityStateConflict, Status: http.StatusBadRequest, Message: "activity must be either scheduled or recorded"},
	{Err: usecase.ErrScheduleNotFuture, Status: http.StatusBadRequest, Message: "scheduled time must be in the future"},
	{Err: usecase.ErrRecordNotPast, Status: http.StatusBadRequest, Message: "recorded time must be in the past"},
	{Err: usecase.ErrActivityRecorded, Status: http.StatusConflict, Message: "activity already recorded"},
	{Err: usecase.ErrDeleteReasonRequired, Status: http.StatusBadRequest, Message: "deletion reason is required"},
	{Err: usecase.ErrActivityNotFound, Status: http.StatusNotFound, Message: "activity not found"},
}

func (h *ActivityHandler) create(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid activity payload"))
		return
	}

	input := usecase.CreateActivityInput{
		Title:       req.Title,
		Notes:       req.Notes,
		Type:        domain.ActivityType(req.Type),
		ScheduledAt: req.ScheduledAt,
		RecordedAt:  req.RecordedAt,
	}
	if req.Outcome != nil {
		outcome := domain.CompletionOutcome(*req.Outcome)
		input.Outcome = &outcome
	}

	activity, err := h.activities.Create(c.Request.Context(), userID, input)
	if err != nil {
		RespondWithMappedError(c, err, activityValidationCases, http.StatusInternalServerError, "failed to create activity")
		return
	}

	c.JSON(http.StatusCreated, newActivityView(activity))
}

func (h *ActivityHandler) get(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	activity, err := h.activities.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, activityValidationCases, http.StatusInternalServerError, "failed to load activity")
		return
	}

	c.JSON(http.StatusOK, newActivityView(activity))
}

func (h *ActivityHandler) update(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid activity payload"))
		return
	}

	input := usecase.UpdateActivityInput{
		Title:       req.Title,
		Notes:       req.Notes,
		ScheduledAt: req.ScheduledAt,
	}
	if req.Type != nil {
		activityType := domain.ActivityType(*req.Type)
		input.Type = &activityType
	}

	activity, err := h.activities.Update(c.Request.Context(), userID, c.Param("id"), input)
	if err != nil {
		RespondWithMappedError(c, err, activityValidationCases, http.StatusInternalServerError, "failed to update activity")
		return
	}

	c.JSON(http.StatusOK, newActivityView(activity))
}

func (h *ActivityHandler) complete(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req CompleteActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid completion payload"))
		return
	}

	activity, err := h.activities.Complete(c.Request.Context(), userID, c.Param("id"), req.CompletedAt, domain.CompletionOutcome(req.Outcome))
	if err != nil {
		RespondWithMappedError(c, err, activityValidationCases, http.StatusInternalServerError, "failed to complete activity")
		return
	}

	c.JSON(http.StatusOK, newActivityView(activity))
}

func (h *ActivityHandler) remove(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req DeleteActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "deletion reason is required"))
		return
	}

	activity, err := h.activities.Delete(c.Request.Context(), userID, c.Param("id"), req.Reason)
	if err != nil {
		RespondWithMappedError(c, err, activityValidationCases, http.StatusInternalServerError, "failed to delete activity")
		return
	}

	c.JSON(http.StatusOK, DeleteActivityResponse{
		Message:  "activity deleted",
		Activity: newActivityView(activity),
	})
}

func (h *ActivityHandler) list(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	filter, err := parseListFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
		return
	}

	result, err := h.activities.List(c.Request.Context(), userID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list activities"))
		return
	}

	views := make([]ActivityView, 0, len(result.Activities))
	for _, activity := range result.Activities {
		views = append(views, newActivityView(activity))
	}

	c.JSON(http.StatusOK, ActivityListResponse{
		Activities: views,
		Stats: ActivityStatsView{
			Total:     result.Stats.Total,
			Open:      result.Stats.Open,
			Completed: result.Stats.Completed,
		},
	})
}

func parseListFilter(c *gin.Context) (port.ActivityFilter, error) {
	var filter port.ActivityFilter

	// includeDeleted is the documented spelling; the snake_case form is
	// accepted as an alias.
	raw := c.Query("includeDeleted")
	if raw == "" {
		raw = c.Query("include_deleted")
	}
	if raw != "" {
		includeDeleted, err := strconv.ParseBool(raw)
		if err != nil {
			return port.ActivityFilter{}, errInvalidQueryParam("includeDeleted")
		}
		filter.IncludeDeleted = includeDeleted
	}

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return port.ActivityFilter{}, errInvalidQueryParam("from")
		}
		filter.From = &from
	}

	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return port.ActivityFilter{}, errInvalidQueryParam("to")
		}
		filter.To = &to
	}

	return filter, nil
}

func errInvalidQueryParam(name string) error {
	return fmt.Errorf("invalid query parameter: %s", name)
}
