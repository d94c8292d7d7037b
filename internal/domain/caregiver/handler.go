package caregiver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medtrack/adherence/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// GET branches on the caller's role, so it is registered once.
	api.GET("/connections", h.List)

	// PUT is shared: the service applies only the fields the caller's side
	// of the connection owns.
	api.PUT("/connections/:id", h.Update)

	patient := api.Group("", auth.RequireRole("patient"))
	patient.POST("/connections", h.Connect)
	patient.DELETE("/connections/:id", h.Disconnect)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "connection not found")
	case errors.Is(err, ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, "connection already exists")
	case errors.Is(err, ErrNotParticipant):
		return echo.NewHTTPError(http.StatusForbidden, "not part of this connection")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

type connectRequest struct {
	CaregiverID  uuid.UUID `json:"caregiver_id"`
	Relationship *string   `json:"relationship"`
}

func (h *Handler) Connect(c echo.Context) error {
	patientID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	var req connectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	conn, err := h.svc.Connect(c.Request().Context(), patientID, req.CaregiverID, req.Relationship)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, conn)
}

// List returns the caller's connections: the patient side sees their
// caregivers, the caregiver side sees their patients.
func (h *Handler) List(c echo.Context) error {
	userID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	var items []*Connection
	if hasRole(auth.RolesFromContext(c.Request().Context()), "patient") {
		items, err = h.svc.ListForPatient(c.Request().Context(), userID)
	} else {
		items, err = h.svc.ListForCaregiver(c.Request().Context(), userID)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Connection{}
	}
	return c.JSON(http.StatusOK, items)
}

func hasRole(roles []string, want string) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}

func (h *Handler) Disconnect(c echo.Context) error {
	patientID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Disconnect(c.Request().Context(), patientID, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Update(c echo.Context) error {
	callerID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p UpdateParams
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	conn, err := h.svc.Update(c.Request().Context(), callerID, id, p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, conn)
}
