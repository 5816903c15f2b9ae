package handler

import (
	"errors"
	"net/http"

	"pepagora/catalog-service/internal/app/catalog/entity"
	"pepagora/catalog-service/internal/app/catalog/service"
	"pepagora/catalog-service/internal/app/catalog/validation"
	"pepagora/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CatalogHandler обрабатывает HTTP запросы каталога
type CatalogHandler struct {
	catalogService service.CatalogServiceInterface
}

func NewCatalogHandler(catalogService service.CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, entity.ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// respondServiceError переводит ошибки сервиса в HTTP статусы
// entities - имя коллекции для сообщения "failed to fetch <entities>"
func respondServiceError(c *gin.Context, err error, entities string) {
	switch {
	case errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrSubcategoryNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrParentCategoryNotFound),
		errors.Is(err, service.ErrParentSubcategoryNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCategoryExists),
		errors.Is(err, service.ErrProductExists):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrFetchFailed):
		logger.Warn().Err(err).Str("path", c.FullPath()).Msg("list query failed")
		respondError(c, http.StatusBadRequest, "failed to fetch "+entities)
	default:
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("request failed")
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

// bindAndValidate разбирает JSON тело и проверяет правила валидации
// При ошибке ответ уже отправлен
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return false
	}

	if result := validation.Validate(req); !result.Valid() {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Error:      http.StatusText(http.StatusBadRequest),
			Message:    result.Error(),
			Violations: result.Violations,
		})
		return false
	}
	return true
}

// listQuery читает page, limit, search, sortBy, sortOrder из query string
// Ограничение limit применяет сервис
func listQuery(c *gin.Context) entity.ListQuery {
	return entity.ParseListQuery(
		c.Query("page"),
		c.Query("limit"),
		c.Query("search"),
		c.Query("sortBy"),
		c.Query("sortOrder"),
	)
}

func respondList[T any](c *gin.Context, message string, page *entity.Page[T]) {
	c.JSON(http.StatusOK, entity.ListResponse{
		StatusCode: http.StatusOK,
		Message:    message,
		Data:       page.Items,
		Pagination: page.Pagination(),
	})
}

// === CATEGORIES HANDLERS ===

// CreateCategory обрабатывает POST /categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req entity.CreateCategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, "categories")
		return
	}

	c.JSON(http.StatusCreated, category)
}

// ListCategories обрабатывает GET /categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	page, err := h.catalogService.ListCategories(c.Request.Context(), listQuery(c))
	if err != nil {
		respondServiceError(c, err, "categories")
		return
	}

	respondList(c, "Categories fetched successfully", page)
}

// GetCategory обрабатывает GET /categories/:id
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	category, err := h.catalogService.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "categories")
		return
	}

	c.JSON(http.StatusOK, category)
}

// GetCategoryDescendants обрабатывает GET /categories/:id/descendants
func (h *CatalogHandler) GetCategoryDescendants(c *gin.Context) {
	nodes, err := h.catalogService.CategoryDescendants(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "categories")
		return
	}

	c.JSON(http.StatusOK, nodes)
}

// UpdateCategory обрабатывает PUT /categories/:id
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	var req entity.UpdateCategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	category, err := h.catalogService.UpdateCategory(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err, "categories")
		return
	}

	c.JSON(http.StatusOK, category)
}

// DeleteCategory обрабатывает DELETE /categories/:id
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	category, err := h.catalogService.DeleteCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "categories")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Category deleted successfully",
		Data:    category,
	})
}

// === ADMIN ===

// GetIntegrityReport обрабатывает GET /admin/integrity
func (h *CatalogHandler) GetIntegrityReport(c *gin.Context) {
	report, err := h.catalogService.IntegrityReport(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "catalog")
		return
	}

	c.JSON(http.StatusOK, report)
}
