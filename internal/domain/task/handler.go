package task

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careops/carehub/internal/platform/httperr"
	"github.com/careops/carehub/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/tasks", h.CreateTask)
	api.GET("/tasks", h.ListTasks)
	// The static route must be declared before /tasks/:id so "find"
	// is not parsed as a task id.
	api.GET("/tasks/find", h.FindTaskByActivityID)
	api.GET("/tasks/:id", h.GetTask)
	api.PUT("/tasks/:id", h.UpdateTask)
	api.PATCH("/tasks/:id/status", h.UpdateTaskStatus)
	api.POST("/tasks/:id/assign", h.AssignTask)
	api.DELETE("/tasks/:id", h.DeleteTask)
}

func (h *Handler) CreateTask(c echo.Context) error {
	var t Task
	if err := c.Bind(&t); err != nil {
		return httperr.Validation(err.Error(), nil)
	}
	if err := h.svc.Create(c.Request().Context(), &t); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) ListTasks(c echo.Context) error {
	pg := pagination.FromContext(c)
	opts := ListOptions{
		Populate: c.QueryParam("populate") == "true",
		Limit:    pg.Limit,
		Offset:   pg.Offset,
	}
	if status := c.QueryParam("status"); status != "" {
		for _, s := range strings.Split(status, ",") {
			opts.Statuses = append(opts.Statuses, Status(strings.TrimSpace(s)))
		}
	}
	if patientID := c.QueryParam("patient_id"); patientID != "" {
		pid, err := uuid.Parse(patientID)
		if err != nil {
			return httperr.Validation("invalid patient_id", nil)
		}
		opts.PatientID = &pid
	}

	tasks, total, err := h.svc.List(c.Request().Context(), opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(tasks, total, pg.Limit, pg.Offset))
}

func (h *Handler) FindTaskByActivityID(c echo.Context) error {
	activityID := c.QueryParam("activity_id")
	if activityID == "" {
		return httperr.Validation("activity_id is required", nil)
	}
	t, err := h.svc.FindByActivityID(c.Request().Context(), activityID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) GetTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid task id", nil)
	}
	ctx := c.Request().Context()
	if c.QueryParam("populate") == "true" {
		t, err := h.svc.GetPopulated(ctx, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, t)
	}
	t, err := h.svc.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) UpdateTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid task id", nil)
	}
	var params UpdateParams
	if err := c.Bind(&params); err != nil {
		return httperr.Validation(err.Error(), nil)
	}
	t, err := h.svc.Update(c.Request().Context(), id, params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "task updated", "task": t})
}

func (h *Handler) UpdateTaskStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid task id", nil)
	}
	var body struct {
		Status Status `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return httperr.Validation(err.Error(), nil)
	}
	if err := h.svc.UpdateStatus(c.Request().Context(), id, body.Status); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "task status updated", "status": body.Status})
}

func (h *Handler) AssignTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid task id", nil)
	}
	var body struct {
		AssignedToUserID uuid.UUID `json:"assigned_to_user_id"`
		AssignedByUserID uuid.UUID `json:"assigned_by_user_id"`
	}
	if err := c.Bind(&body); err != nil {
		return httperr.Validation(err.Error(), nil)
	}
	if body.AssignedToUserID == uuid.Nil {
		return httperr.Validation("assigned_to_user_id is required", nil)
	}
	t, err := h.svc.Assign(c.Request().Context(), id, body.AssignedToUserID, body.AssignedByUserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid task id", nil)
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "task deleted", "id": id.String()})
}
