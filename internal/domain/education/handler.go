package education

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

// RegisterRoutes exposes content reads to any authenticated user, progress
// writes to the reader, and content management to admins.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/topics", h.ListTopics)
	api.GET("/topics/:id/articles", h.ListArticles)
	api.GET("/articles/:id", h.GetArticle)
	api.PUT("/articles/:id/progress", h.SaveProgress)
	api.GET("/progress", h.Progress)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/topics", h.CreateTopic)
	admin.POST("/articles", h.CreateArticle)
}

func (h *Handler) ListTopics(c echo.Context) error {
	items, err := h.svc.ListTopics(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*HealthTopic{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListArticles(c echo.Context) error {
	topicID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid topic id")
	}
	items, err := h.svc.ListArticles(c.Request().Context(), topicID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*HealthArticle{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetArticle(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetArticle(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "article not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

type progressRequest struct {
	Read       *bool `json:"read"`
	Bookmarked *bool `json:"bookmarked"`
}

func (h *Handler) SaveProgress(c echo.Context) error {
	userID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	articleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req progressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// Omitted fields default to the common case: marking the article read.
	read, bookmarked := true, false
	if req.Read != nil {
		read = *req.Read
	}
	if req.Bookmarked != nil {
		bookmarked = *req.Bookmarked
	}
	p, err := h.svc.SaveProgress(c.Request().Context(), userID, articleID, read, bookmarked)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "article not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Progress(c echo.Context) error {
	userID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	items, err := h.svc.Progress(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*ArticleProgress{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateTopic(c echo.Context) error {
	var t HealthTopic
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateTopic(c.Request().Context(), &t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) CreateArticle(c echo.Context) error {
	var a HealthArticle
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateArticle(c.Request().Context(), &a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}
