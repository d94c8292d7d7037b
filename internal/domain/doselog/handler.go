package doselog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medtrack/adherence/internal/platform/auth"
)

// AccessChecker answers whether a caregiver may view a patient's data.
type AccessChecker interface {
	CanView(ctx context.Context, caregiverID, patientID uuid.UUID) (bool, error)
}

type Handler struct {
	svc    *Service
	access AccessChecker
	// defaultLimit caps the today view when the client sends no limit.
	defaultLimit int
}

func NewHandler(svc *Service, access AccessChecker, defaultLimit int) *Handler {
	return &Handler{svc: svc, access: access, defaultLimit: defaultLimit}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	patient := api.Group("", auth.RequireRole("patient"))
	patient.GET("/dose-logs/today", h.Today)
	patient.POST("/dose-logs/:id/take", h.Take)
	patient.POST("/dose-logs/:id/skip", h.Skip)
	patient.GET("/compliance/today", h.ComplianceToday)
	patient.GET("/compliance", h.Compliance)

	caregiver := api.Group("", auth.RequireRole("caregiver"))
	caregiver.GET("/patients/:patientId/dose-logs/today", h.PatientDayLogs)
	caregiver.GET("/patients/:patientId/compliance/today", h.PatientCompliance)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "dose log not found")
	case errors.Is(err, ErrTerminalStatus):
		return echo.NewHTTPError(http.StatusConflict, "dose log already resolved")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) Today(c echo.Context) error {
	patientID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	limit := h.defaultLimit
	if c.QueryParam("all") == "true" {
		limit = 0
	} else if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
	}
	occs, err := h.svc.Today(c.Request().Context(), patientID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if occs == nil {
		occs = []*Occurrence{}
	}
	return c.JSON(http.StatusOK, occs)
}

type transitionRequest struct {
	Notes *string `json:"notes"`
}

func (h *Handler) Take(c echo.Context) error {
	return h.transition(c, h.svc.MarkTaken)
}

func (h *Handler) Skip(c echo.Context) error {
	return h.transition(c, h.svc.MarkSkipped)
}

func (h *Handler) transition(c echo.Context, apply func(context.Context, uuid.UUID, uuid.UUID, *string) (*DoseLog, error)) error {
	patientID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	dl, err := apply(c.Request().Context(), patientID, id, req.Notes)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dl)
}

func (h *Handler) ComplianceToday(c echo.Context) error {
	patientID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	summary, err := h.svc.ComplianceForDay(c.Request().Context(), patientID, h.svc.now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) Compliance(c echo.Context) error {
	patientID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	date, err := h.dateParam(c)
	if err != nil {
		return err
	}
	summary, err := h.svc.ComplianceForDay(c.Request().Context(), patientID, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, summary)
}

// PatientDayLogs is the caregiver's read-only view of a patient's logged
// doses. It never materializes new rows.
func (h *Handler) PatientDayLogs(c echo.Context) error {
	_, patientID, err := h.caregiverAccess(c)
	if err != nil {
		return err
	}
	date, err := h.dateParam(c)
	if err != nil {
		return err
	}
	logs, err := h.svc.DayLogs(c.Request().Context(), patientID, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if logs == nil {
		logs = []*DoseLog{}
	}
	return c.JSON(http.StatusOK, logs)
}

func (h *Handler) PatientCompliance(c echo.Context) error {
	_, patientID, err := h.caregiverAccess(c)
	if err != nil {
		return err
	}
	date, err := h.dateParam(c)
	if err != nil {
		return err
	}
	summary, err := h.svc.ComplianceForDay(c.Request().Context(), patientID, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) caregiverAccess(c echo.Context) (caregiverID, patientID uuid.UUID, err error) {
	caregiverID, err = auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	patientID, err = uuid.Parse(c.Param("patientId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	ok, err := h.access.CanView(c.Request().Context(), caregiverID, patientID)
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "no active connection to this patient")
	}
	return caregiverID, patientID, nil
}

func (h *Handler) dateParam(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("date")
	if raw == "" {
		return h.svc.now(), nil
	}
	date, err := time.ParseInLocation("2006-01-02", raw, h.svc.loc)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return date, nil
}
