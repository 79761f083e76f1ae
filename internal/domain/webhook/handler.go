package webhook

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/careops/carehub/internal/platform/httperr"
)

type Handler struct {
	processor *Processor
}

func NewHandler(processor *Processor) *Handler {
	return &Handler{processor: processor}
}

// RegisterRoutes mounts the delivery endpoint. The route sits outside
// the authenticated API group; the platform does not sign in.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/awell", h.ReceiveActivity)
}

func (h *Handler) ReceiveActivity(c echo.Context) error {
	var evt Event
	if err := c.Bind(&evt); err != nil {
		return httperr.Validation("invalid webhook payload: "+err.Error(), nil)
	}
	if err := evt.Validate(); err != nil {
		return err
	}
	if err := h.processor.Process(c.Request().Context(), &evt); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "ok"})
}
