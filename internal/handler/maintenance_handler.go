package handler

import (
	"errors"
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type MaintenanceHandler struct {
	maintenanceService service.MaintenanceService
}

func NewMaintenanceHandler(maintenanceService service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenanceService: maintenanceService}
}

func (h *MaintenanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/errors", middleware.RequireAnyUser(), h.ReportError)

	admin := router.Group("/api/admin", middleware.RequireAdmin())
	{
		admin.POST("/records/delete-range", h.DeleteRange)
		admin.GET("/backups", h.Backups)
		admin.GET("/errors", h.Errors)
	}
}

// DeleteRange bulk-deletes records in a date range after backing them up
// @Summary      Delete records in range
// @Description  Snapshots every matching material usage and product recovery row into a deletion backup, then deletes them in the same transaction. Requires the confirmation phrase
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.DeleteRangeRequest  true  "Range and confirmation"
// @Success      200      {object}  response.Response{data=service.DeleteRangeResult}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/records/delete-range [post]
func (h *MaintenanceHandler) DeleteRange(c *gin.Context) {
	var req service.DeleteRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.maintenanceService.DeleteRange(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrConfirmationPhrase) {
			status = http.StatusBadRequest
		}
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Backups lists deletion backups, newest first
func (h *MaintenanceHandler) Backups(c *gin.Context) {
	params := pagination.Parse(c)
	backups, total, err := h.maintenanceService.ListBackups(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve backups: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "backups", backups, total, params))
}

// ReportError records a client-side error report
func (h *MaintenanceHandler) ReportError(c *gin.Context) {
	var req service.ErrorReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if req.UserAgent == "" {
		req.UserAgent = c.Request.UserAgent()
	}

	if err := h.maintenanceService.ReportError(c.Request.Context(), actorFromContext(c), req); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to record error: "+err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, nil))
}

// Errors lists recorded client error reports
func (h *MaintenanceHandler) Errors(c *gin.Context) {
	params := pagination.Parse(c)
	logs, total, err := h.maintenanceService.ListErrorLogs(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve error logs: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "errors", logs, total, params))
}
