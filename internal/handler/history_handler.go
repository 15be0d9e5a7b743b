package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	historyService service.HistoryService
}

func NewHistoryHandler(historyService service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

func (h *HistoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	histories := router.Group("/api/histories", middleware.RequireAdmin())
	{
		histories.GET("/status", h.Status)
		histories.GET("/uploads", h.Uploads)
		histories.GET("/logins", h.Logins)
		histories.GET("/settings", h.Settings)
	}
}

// Status lists status transition history, optionally for one record
// @Summary      List status history
// @Tags         histories
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Param        record_id  query     string  false  "Filter by record ID"
// @Success      200        {object}  response.Response
// @Router       /api/histories/status [get]
func (h *HistoryHandler) Status(c *gin.Context) {
	params := pagination.Parse(c)
	entries, total, err := h.historyService.StatusHistory(c.Request.Context(), params.Page, params.Limit, c.Query("record_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve history: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "entries", entries, total, params))
}

// Uploads lists spreadsheet upload history
func (h *HistoryHandler) Uploads(c *gin.Context) {
	params := pagination.Parse(c)
	entries, total, err := h.historyService.UploadHistory(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve history: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "entries", entries, total, params))
}

// Logins lists sign-in history
func (h *HistoryHandler) Logins(c *gin.Context) {
	params := pagination.Parse(c)
	entries, total, err := h.historyService.LoginHistory(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve history: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "entries", entries, total, params))
}

// Settings lists allow-list change history
func (h *HistoryHandler) Settings(c *gin.Context) {
	params := pagination.Parse(c)
	entries, total, err := h.historyService.SettingHistory(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve history: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "entries", entries, total, params))
}
