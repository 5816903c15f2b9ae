package handler

import (
	"net/http"
	"time"

	"pepagora/pkg/logger"
	"pepagora/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "catalog-service"

// SetupRoutes настраивает маршруты Catalog Service
// Все маршруты каталога требуют JWT, изменения доступны только перечисленным ролям
// X-Forwarded-For учитывается только от trustedProxies (nil - ни от кого)
func SetupRoutes(
	catalogHandler *CatalogHandler,
	authMiddleware *AuthMiddleware,
	limiter *RateLimiter,
	allowedOrigins []string,
	trustedProxies []string,
) *gin.Engine {
	router := gin.New()

	// ClientIP служит ключом rate limiter, поэтому заголовки прокси без явного списка не читаются
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		logger.Error().Err(err).Strs("trusted_proxies", trustedProxies).Msg("Invalid trusted proxies, ignoring forwarded headers")
		_ = router.SetTrustedProxies(nil)
	}

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware(serviceName))

	// CORS для браузерной админки
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if limiter != nil {
		router.Use(limiter.Middleware(serviceName))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	editors := authMiddleware.RequireRole(RoleAdmin, RoleCategoryManager)
	productEditors := authMiddleware.RequireRole(RoleAdmin, RolePepagoraManager, RoleCategoryManager)
	adminOnly := authMiddleware.RequireRole(RoleAdmin)

	categories := router.Group("/categories")
	categories.Use(authMiddleware.Authenticate())
	{
		categories.GET("", catalogHandler.ListCategories)
		categories.GET("/:id", catalogHandler.GetCategory)
		categories.GET("/:id/descendants", catalogHandler.GetCategoryDescendants)

		categories.POST("", editors, catalogHandler.CreateCategory)
		categories.PUT("/:id", editors, catalogHandler.UpdateCategory)
		categories.DELETE("/:id", adminOnly, catalogHandler.DeleteCategory)
	}

	subcategories := router.Group("/subcategories")
	subcategories.Use(authMiddleware.Authenticate())
	{
		subcategories.GET("", catalogHandler.ListSubcategories)
		subcategories.GET("/by-category/:categoryId", catalogHandler.ListSubcategoriesByCategory)
		subcategories.GET("/:id", catalogHandler.GetSubcategory)

		subcategories.POST("", editors, catalogHandler.CreateSubcategory)
		subcategories.PUT("/:id", editors, catalogHandler.UpdateSubcategory)
		subcategories.DELETE("/:id", adminOnly, catalogHandler.DeleteSubcategory)
	}

	products := router.Group("/products")
	products.Use(authMiddleware.Authenticate())
	{
		// полный список только для редакторов товаров
		products.GET("", productEditors, catalogHandler.ListProducts)
		products.GET("/count", catalogHandler.CountProducts)
		products.GET("/filter", catalogHandler.FilterProducts)
		products.GET("/by-subcategory/:subcategoryId", catalogHandler.ListProductsBySubcategory)
		products.GET("/:id", catalogHandler.GetProduct)

		products.POST("", productEditors, catalogHandler.CreateProduct)
		products.PUT("/:id", productEditors, catalogHandler.UpdateProduct)
		products.DELETE("/:id", productEditors, catalogHandler.DeleteProduct)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware.Authenticate(), adminOnly)
	{
		admin.GET("/integrity", catalogHandler.GetIntegrityReport)
	}

	return router
}
