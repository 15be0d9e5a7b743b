package handler

import (
	"fmt"
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

type UsageHandler struct {
	usageService    service.UsageService
	workflowService service.WorkflowService
	exportService   service.ExportService
}

func NewUsageHandler(usageService service.UsageService, workflowService service.WorkflowService, exportService service.ExportService) *UsageHandler {
	return &UsageHandler{
		usageService:    usageService,
		workflowService: workflowService,
		exportService:   exportService,
	}
}

func (h *UsageHandler) RegisterRoutes(router *gin.RouterGroup) {
	usages := router.Group("/api/materials/usages")
	{
		usages.POST("/upload", middleware.RequireRole(model.RoleAdminCS), h.Upload)
		usages.GET("", middleware.RequireAnyUser(), h.List)
		usages.GET("/export", middleware.RequireAnyUser(), h.Export)
		usages.GET("/:id", middleware.RequireAnyUser(), h.Get)
		usages.PATCH("/:id/status", middleware.RequireAnyUser(), h.UpdateStatus)
		usages.POST("/status/bulk", middleware.RequireAnyUser(), h.BulkUpdateStatus)
	}
}

// Upload ingests a usage spreadsheet
// @Summary      Upload material usage spreadsheet
// @Description  Parses an .xlsx upload, filters rows against the recovery allow-list, deduplicates by (request number, branch, material code) and inserts survivors as 회수대기
// @Tags         materials
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file       formData  file    true   "Spreadsheet (.xlsx)"
// @Param        overwrite  query     bool    false  "Overwrite duplicate keys instead of skipping"
// @Success      200        {object}  response.Response{data=service.UploadResult}
// @Failure      400        {object}  response.Response
// @Router       /api/materials/usages/upload [post]
func (h *UsageHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Spreadsheet file is missing"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to open upload: "+err.Error()))
		return
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to parse spreadsheet: "+err.Error()))
		return
	}
	defer f.Close()

	overwrite := c.Query("overwrite") == "true"
	result, err := h.usageService.Upload(c.Request.Context(), actorFromContext(c), fileHeader.Filename, f, overwrite)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func parseFilterDates(c *gin.Context) (*time.Time, *time.Time) {
	var start, end *time.Time
	if v := c.Query("start_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			start = &t
		}
	}
	if v := c.Query("end_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			eod := t.Add(24*time.Hour - time.Second)
			end = &eod
		}
	}
	return start, end
}

// List handles retrieving paginated recovery records
// @Summary      List material usages
// @Tags         materials
// @Security     BearerAuth
// @Produce      json
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Param        status      query     string  false  "Filter by status"
// @Param        branch      query     string  false  "Filter by branch code (admins only)"
// @Param        search      query     string  false  "Search request or material code"
// @Param        start_date  query     string  false  "Created from (YYYY-MM-DD)"
// @Param        end_date    query     string  false  "Created until (YYYY-MM-DD)"
// @Success      200         {object}  response.Response{data=object}
// @Router       /api/materials/usages [get]
func (h *UsageHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	start, end := parseFilterDates(c)
	filter := repository.UsageFilter{
		Status:     c.Query("status"),
		BranchCode: c.Query("branch"),
		Search:     c.Query("search"),
		StartDate:  start,
		EndDate:    end,
	}

	usages, total, err := h.usageService.List(c.Request.Context(), actorFromContext(c), params.Page, params.Limit, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve records: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "usages", usages, total, params))
}

// Get returns one record by id
func (h *UsageHandler) Get(c *gin.Context) {
	usage, err := h.usageService.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, usage))
}

// UpdateStatus advances one record through the workflow
// @Summary      Update recovery status
// @Description  Sets the target status, stamps the matching actor/timestamp pair and appends one status history row
// @Tags         materials
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Record ID"
// @Param        payload  body      service.TransitionRequest  true  "Transition Payload"
// @Success      200      {object}  response.Response{data=model.MaterialUsage}
// @Failure      400      {object}  response.Response
// @Router       /api/materials/usages/{id}/status [patch]
func (h *UsageHandler) UpdateStatus(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	usage, err := h.workflowService.TransitionMaterial(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, usage))
}

// BulkUpdateStatus applies one transition to many records
// @Summary      Bulk update recovery status
// @Description  Applies the transition per id sequentially; failures are reported per id and earlier successes are not rolled back
// @Tags         materials
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BulkTransitionRequest  true  "Bulk Transition Payload"
// @Success      200      {object}  response.Response{data=service.BulkTransitionResult}
// @Failure      400      {object}  response.Response
// @Router       /api/materials/usages/status/bulk [post]
func (h *UsageHandler) BulkUpdateStatus(c *gin.Context) {
	var req service.BulkTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result := h.workflowService.BulkTransitionMaterials(c.Request.Context(), actorFromContext(c), req)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Export streams the filtered rows as an Excel workbook
// @Summary      Export material usages
// @Tags         materials
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}  binary
// @Router       /api/materials/usages/export [get]
func (h *UsageHandler) Export(c *gin.Context) {
	start, end := parseFilterDates(c)
	filter := repository.UsageFilter{
		Status:     c.Query("status"),
		BranchCode: c.Query("branch"),
		StartDate:  start,
		EndDate:    end,
	}

	f, fileName, err := h.exportService.UsageWorkbook(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
