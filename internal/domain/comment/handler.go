package comment

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careops/carehub/internal/platform/auth"
	"github.com/careops/carehub/internal/platform/httperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/tasks/:taskId/comments", h.CreateComment)
	api.GET("/tasks/:taskId/comments", h.ListTaskComments)
	api.PUT("/tasks/:taskId/comments/:id", h.AssociateComment)
	api.DELETE("/tasks/:taskId/comments/:id", h.DisassociateComment)

	api.GET("/comments/:id", h.GetComment)
	api.GET("/comments/:id/thread", h.GetThread)
	api.PUT("/comments/:id", h.UpdateComment)
	api.DELETE("/comments/:id", h.DeleteComment)
}

// authorID pulls the authenticated user out of the request context.
// Tokens minted outside the user directory may carry non-uuid subjects;
// those comments are simply unattributed.
func authorID(c echo.Context) *uuid.UUID {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return nil
	}
	return &id
}

func (h *Handler) CreateComment(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		return httperr.Validation("invalid task id", nil)
	}
	var cm Comment
	if err := c.Bind(&cm); err != nil {
		return httperr.Validation(err.Error(), nil)
	}
	if cm.CreatedByUserID == nil {
		cm.CreatedByUserID = authorID(c)
	}
	if err := h.svc.Create(c.Request().Context(), taskID, &cm); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cm)
}

func (h *Handler) ListTaskComments(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		return httperr.Validation("invalid task id", nil)
	}
	comments, err := h.svc.ListByTask(c.Request().Context(), taskID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comments)
}

func (h *Handler) AssociateComment(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		return httperr.Validation("invalid task id", nil)
	}
	commentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid comment id", nil)
	}
	if err := h.svc.Associate(c.Request().Context(), taskID, commentID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "comment associated"})
}

func (h *Handler) DisassociateComment(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		return httperr.Validation("invalid task id", nil)
	}
	commentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid comment id", nil)
	}
	if err := h.svc.Disassociate(c.Request().Context(), taskID, commentID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "comment disassociated"})
}

func (h *Handler) GetComment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid comment id", nil)
	}
	cm, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cm)
}

func (h *Handler) GetThread(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid comment id", nil)
	}
	thread, err := h.svc.Thread(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, thread)
}

func (h *Handler) UpdateComment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid comment id", nil)
	}
	var params UpdateParams
	if err := c.Bind(&params); err != nil {
		return httperr.Validation(err.Error(), nil)
	}
	if params.UpdatedBy == nil {
		params.UpdatedBy = authorID(c)
	}
	cm, err := h.svc.Update(c.Request().Context(), id, params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cm)
}

func (h *Handler) DeleteComment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid comment id", nil)
	}
	if err := h.svc.Delete(c.Request().Context(), id, authorID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "comment deleted", "id": id.String()})
}
