package handler

import (
	"net/http"

	"pepagora/catalog-service/internal/app/catalog/entity"

	"github.com/gin-gonic/gin"
)

// === PRODUCTS HANDLERS ===

// CreateProduct обрабатывает POST /products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req entity.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, "products")
		return
	}

	c.JSON(http.StatusCreated, product)
}

// ListProducts обрабатывает GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	page, err := h.catalogService.ListProducts(c.Request.Context(), listQuery(c))
	if err != nil {
		respondServiceError(c, err, "products")
		return
	}

	respondList(c, "Products fetched successfully", page)
}

// CountProducts обрабатывает GET /products/count
func (h *CatalogHandler) CountProducts(c *gin.Context) {
	count, err := h.catalogService.CountProducts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "products")
		return
	}

	c.JSON(http.StatusOK, entity.CountResponse{Count: count})
}

// FilterProducts обрабатывает GET /products/filter?categoryIds=a,b&subcategoryIds=c
// Параметры можно передавать через запятую и/или повторять
func (h *CatalogHandler) FilterProducts(c *gin.Context) {
	categoryIDs := entity.SplitIDs(c.QueryArray("categoryIds"))
	subcategoryIDs := entity.SplitIDs(c.QueryArray("subcategoryIds"))

	products, err := h.catalogService.FilterProducts(c.Request.Context(), categoryIDs, subcategoryIDs)
	if err != nil {
		respondServiceError(c, err, "products")
		return
	}

	c.JSON(http.StatusOK, products)
}

// GetProduct обрабатывает GET /products/:id, подкатегория подгружается в parent
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.catalogService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "products")
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListProductsBySubcategory обрабатывает GET /products/by-subcategory/:subcategoryId
func (h *CatalogHandler) ListProductsBySubcategory(c *gin.Context) {
	products, err := h.catalogService.ListProductsBySubcategory(c.Request.Context(), c.Param("subcategoryId"))
	if err != nil {
		respondServiceError(c, err, "products")
		return
	}

	c.JSON(http.StatusOK, products)
}

// UpdateProduct обрабатывает PUT /products/:id, смена mappedParent проверяет новую подкатегорию
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req entity.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err, "products")
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct обрабатывает DELETE /products/:id и возвращает удаленный товар
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	product, err := h.catalogService.DeleteProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "products")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Product deleted successfully",
		Data:    product,
	})
}
