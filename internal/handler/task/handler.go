package task

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dentalize/scheduler-api/internal/middleware"
	"github.com/dentalize/scheduler-api/internal/model"
	"github.com/dentalize/scheduler-api/internal/service/scheduling"
	apperrors "github.com/dentalize/scheduler-api/pkg/errors"
	"github.com/dentalize/scheduler-api/pkg/httputil"
)

// defaultListWindow is used when the caller omits the range bounds.
const defaultListWindow = 7 * 24 * time.Hour

type Handler struct {
	service *scheduling.Service
}

func NewHandler(service *scheduling.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	tasks := rg.Group("/tasks")
	{
		tasks.GET("", h.ListTasks)
		tasks.POST("", h.CreateTask)
		tasks.GET("/:id", h.GetTask)
		tasks.PUT("/:id", h.UpdateTask)
		tasks.DELETE("/:id", h.DeleteTask)
	}
}

func (h *Handler) CreateTask(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.NewUnauthorized("missing user identity"))
		return
	}

	var req model.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation(err.Error()))
		return
	}

	task, err := h.service.CreateTask(c.Request.Context(), userID, &req)
	if err != nil {
		c.Error(err)
		return
	}

	httputil.RespondWithCreated(c, task)
}

func (h *Handler) GetTask(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.NewUnauthorized("missing user identity"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation("invalid task ID"))
		return
	}

	task, err := h.service.GetTask(c.Request.Context(), userID, id)
	if err != nil {
		c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, task)
}

// ListTasks returns the caller's appointments. With client_id set it lists
// a patient's history; otherwise it lists the [from, to) calendar range,
// defaulting to the week starting today.
func (h *Handler) ListTasks(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.NewUnauthorized("missing user identity"))
		return
	}

	if raw := c.Query("client_id"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.NewValidation("invalid client ID"))
			return
		}

		tasks, err := h.service.ListClientTasks(c.Request.Context(), userID, clientID)
		if err != nil {
			c.Error(err)
			return
		}
		httputil.RespondWithSuccess(c, tasks)
		return
	}

	from, to, err := parseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	tasks, err := h.service.ListTasks(c.Request.Context(), userID, from, to)
	if err != nil {
		c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, tasks)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.NewUnauthorized("missing user identity"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation("invalid task ID"))
		return
	}

	var req model.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation(err.Error()))
		return
	}

	task, err := h.service.UpdateTask(c.Request.Context(), userID, id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.NewUnauthorized("missing user identity"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation("invalid task ID"))
		return
	}

	if err := h.service.DeleteTask(c.Request.Context(), userID, id); err != nil {
		c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

func parseRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.Add(defaultListWindow)

	var err error
	if fromRaw != "" {
		from, err = time.Parse(time.RFC3339, fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.NewValidation("invalid from time, expected RFC3339")
		}
		to = from.Add(defaultListWindow)
	}
	if toRaw != "" {
		to, err = time.Parse(time.RFC3339, toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.NewValidation("invalid to time, expected RFC3339")
		}
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, apperrors.NewValidation("from must be before to")
	}
	return from, to, nil
}
