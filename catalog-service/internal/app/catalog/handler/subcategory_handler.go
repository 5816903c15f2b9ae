package handler

import (
	"net/http"

	"pepagora/catalog-service/internal/app/catalog/entity"

	"github.com/gin-gonic/gin"
)

// === SUBCATEGORIES HANDLERS ===

// CreateSubcategory обрабатывает POST /subcategories
func (h *CatalogHandler) CreateSubcategory(c *gin.Context) {
	var req entity.CreateSubcategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	subcategory, err := h.catalogService.CreateSubcategory(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, "subcategories")
		return
	}

	c.JSON(http.StatusCreated, subcategory)
}

// ListSubcategories обрабатывает GET /subcategories
func (h *CatalogHandler) ListSubcategories(c *gin.Context) {
	page, err := h.catalogService.ListSubcategories(c.Request.Context(), listQuery(c))
	if err != nil {
		respondServiceError(c, err, "subcategories")
		return
	}

	respondList(c, "Subcategories fetched successfully", page)
}

func (h *CatalogHandler) GetSubcategory(c *gin.Context) {
	subcategory, err := h.catalogService.GetSubcategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "subcategories")
		return
	}

	c.JSON(http.StatusOK, subcategory)
}

// ListSubcategoriesByCategory обрабатывает GET /subcategories/by-category/:categoryId
func (h *CatalogHandler) ListSubcategoriesByCategory(c *gin.Context) {
	subcategories, err := h.catalogService.ListSubcategoriesByCategory(c.Request.Context(), c.Param("categoryId"))
	if err != nil {
		respondServiceError(c, err, "subcategories")
		return
	}

	c.JSON(http.StatusOK, subcategories)
}

func (h *CatalogHandler) UpdateSubcategory(c *gin.Context) {
	var req entity.UpdateSubcategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	subcategory, err := h.catalogService.UpdateSubcategory(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err, "subcategories")
		return
	}

	c.JSON(http.StatusOK, subcategory)
}

func (h *CatalogHandler) DeleteSubcategory(c *gin.Context) {
	subcategory, err := h.catalogService.DeleteSubcategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "subcategories")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Subcategory deleted successfully",
		Data:    subcategory,
	})
}
