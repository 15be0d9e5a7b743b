package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type MaterialHandler struct {
	materialService service.MaterialService
}

func NewMaterialHandler(materialService service.MaterialService) *MaterialHandler {
	return &MaterialHandler{materialService: materialService}
}

func (h *MaterialHandler) RegisterRoutes(router *gin.RouterGroup) {
	materials := router.Group("/api/materials")
	{
		materials.GET("", middleware.RequireAnyUser(), h.List)
		materials.POST("", middleware.RequireAdmin(), h.Create)
		materials.PUT("/:id", middleware.RequireAdmin(), h.Update)
		materials.PATCH("/:id/active", middleware.RequireAdmin(), h.SetActive)
	}
}

// Create registers a new recovery-target material
// @Summary      Create allow-list entry
// @Description  Adds a material code to the recovery allow-list; uploads referencing codes outside the list are discarded
// @Tags         materials
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateMaterialRequest  true  "Material Payload"
// @Success      201      {object}  response.Response{data=model.RecoveryMaterial}
// @Failure      400      {object}  response.Response
// @Router       /api/materials [post]
func (h *MaterialHandler) Create(c *gin.Context) {
	var req service.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	material, err := h.materialService.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, material))
}

// Update edits an allow-list entry
func (h *MaterialHandler) Update(c *gin.Context) {
	var req service.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	material, err := h.materialService.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, material))
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetActive toggles whether the material accepts new uploads
// @Summary      Activate or deactivate allow-list entry
// @Tags         materials
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Material ID"
// @Param        payload  body      handler.SetActiveRequest  true  "Active flag"
// @Success      200      {object}  response.Response{data=model.RecoveryMaterial}
// @Failure      400      {object}  response.Response
// @Router       /api/materials/{id}/active [patch]
func (h *MaterialHandler) SetActive(c *gin.Context) {
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	material, err := h.materialService.SetActive(c.Request.Context(), actorFromContext(c), c.Param("id"), *req.Active)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, material))
}

// List returns the allow-list, optionally active entries only
func (h *MaterialHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	activeOnly := c.Query("active") == "true"

	materials, total, err := h.materialService.List(c.Request.Context(), params.Page, params.Limit, activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve materials: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "materials", materials, total, params))
}
