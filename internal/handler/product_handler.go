package handler

import (
	"fmt"
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

type ProductHandler struct {
	productService  service.ProductService
	workflowService service.WorkflowService
	exportService   service.ExportService
	packingService  service.PackingService
}

func NewProductHandler(
	productService service.ProductService,
	workflowService service.WorkflowService,
	exportService service.ExportService,
	packingService service.PackingService,
) *ProductHandler {
	return &ProductHandler{
		productService:  productService,
		workflowService: workflowService,
		exportService:   exportService,
		packingService:  packingService,
	}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	recoveries := router.Group("/api/products/recoveries")
	{
		recoveries.POST("/upload", middleware.RequireRole(model.RoleAdminCS), h.Upload)
		recoveries.GET("", middleware.RequireAnyUser(), h.List)
		recoveries.GET("/export", middleware.RequireAnyUser(), h.Export)
		recoveries.GET("/:id", middleware.RequireAnyUser(), h.Get)
		recoveries.GET("/:id/packing-slip", middleware.RequireAnyUser(), h.PackingSlip)
		recoveries.PATCH("/:id/status", middleware.RequireAnyUser(), h.UpdateStatus)
		recoveries.PATCH("/:id/select", middleware.RequireAdmin(), h.Select)
		recoveries.POST("/status/bulk", middleware.RequireAnyUser(), h.BulkUpdateStatus)
	}
}

// Upload ingests a termination request spreadsheet
// @Summary      Upload product recovery spreadsheet
// @Description  Parses termination request rows, deduplicates by (customer number, model name, termination date) and applies the auto-selection rule; selected rows enter 회수대기, remaining approved rows 미선택
// @Tags         products
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file       formData  file  true   "Spreadsheet (.xlsx)"
// @Param        overwrite  query     bool  false  "Overwrite duplicate keys instead of skipping"
// @Success      200        {object}  response.Response{data=service.UploadResult}
// @Failure      400        {object}  response.Response
// @Router       /api/products/recoveries/upload [post]
func (h *ProductHandler) Upload(c *gin.Context) {
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
	result, err := h.productService.Upload(c.Request.Context(), actorFromContext(c), fileHeader.Filename, f, overwrite)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// List handles retrieving paginated product recovery records
func (h *ProductHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	start, end := parseFilterDates(c)
	filter := repository.RecoveryFilter{
		Status:     c.Query("status"),
		BranchCode: c.Query("branch"),
		Search:     c.Query("search"),
		StartDate:  start,
		EndDate:    end,
	}

	recoveries, total, err := h.productService.List(c.Request.Context(), actorFromContext(c), params.Page, params.Limit, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve records: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "recoveries", recoveries, total, params))
}

// Get returns one record by id
func (h *ProductHandler) Get(c *gin.Context) {
	recovery, err := h.productService.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, recovery))
}

// UpdateStatus advances one record through the workflow
// @Summary      Update product recovery status
// @Description  Sets the target status, stamps the matching actor/timestamp pair and appends one status history row. 발송 requires carrier and tracking number; 발송불가 requires a reason
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Record ID"
// @Param        payload  body      service.TransitionRequest  true  "Transition Payload"
// @Success      200      {object}  response.Response{data=model.ProductRecovery}
// @Failure      400      {object}  response.Response
// @Router       /api/products/recoveries/{id}/status [patch]
func (h *ProductHandler) UpdateStatus(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	recovery, err := h.workflowService.TransitionProduct(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, recovery))
}

// Select promotes a 미선택 row to 회수대기 after manual review
// @Summary      Select product for recovery
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Record ID"
// @Success      200  {object}  response.Response{data=model.ProductRecovery}
// @Failure      400  {object}  response.Response
// @Router       /api/products/recoveries/{id}/select [patch]
func (h *ProductHandler) Select(c *gin.Context) {
	recovery, err := h.workflowService.SelectProduct(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, recovery))
}

// BulkUpdateStatus applies one transition to many records
func (h *ProductHandler) BulkUpdateStatus(c *gin.Context) {
	var req service.BulkTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result := h.workflowService.BulkTransitionProducts(c.Request.Context(), actorFromContext(c), req)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// PackingSlip renders the print-media HTML slip for one record
// @Summary      Render packing slip
// @Description  Returns print-ready HTML with the branch return address as sender and the quality center routed by model-name prefix as destination
// @Tags         products
// @Security     BearerAuth
// @Produce      html
// @Param        id   path  string  true  "Record ID"
// @Success      200  {string}  string
// @Failure      404  {object}  response.Response
// @Router       /api/products/recoveries/{id}/packing-slip [get]
func (h *ProductHandler) PackingSlip(c *gin.Context) {
	html, err := h.packingService.RenderSlip(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// Export streams the filtered rows as an Excel workbook
func (h *ProductHandler) Export(c *gin.Context) {
	start, end := parseFilterDates(c)
	filter := repository.RecoveryFilter{
		Status:     c.Query("status"),
		BranchCode: c.Query("branch"),
		StartDate:  start,
		EndDate:    end,
	}

	f, fileName, err := h.exportService.ProductWorkbook(c.Request.Context(), actorFromContext(c), filter)
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
