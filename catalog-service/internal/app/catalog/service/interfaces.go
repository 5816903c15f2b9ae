package service

import (
	"context"

	"pepagora/catalog-service/internal/app/catalog/entity"
)

// CatalogServiceInterface - контракт сервиса каталога для handlers и cron задач
type CatalogServiceInterface interface {
	CreateCategory(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error)
	GetCategory(ctx context.Context, id string) (*entity.Category, error)
	ListCategories(ctx context.Context, q entity.ListQuery) (*entity.Page[entity.Category], error)
	UpdateCategory(ctx context.Context, id string, req *entity.UpdateCategoryRequest) (*entity.Category, error)
	DeleteCategory(ctx context.Context, id string) (*entity.Category, error)
	CategoryDescendants(ctx context.Context, id string) ([]entity.CategoryNode, error)

	CreateSubcategory(ctx context.Context, req *entity.CreateSubcategoryRequest) (*entity.Subcategory, error)
	GetSubcategory(ctx context.Context, id string) (*entity.Subcategory, error)
	ListSubcategories(ctx context.Context, q entity.ListQuery) (*entity.Page[entity.Subcategory], error)
	ListSubcategoriesByCategory(ctx context.Context, categoryID string) ([]entity.Subcategory, error)
	UpdateSubcategory(ctx context.Context, id string, req *entity.UpdateSubcategoryRequest) (*entity.Subcategory, error)
	DeleteSubcategory(ctx context.Context, id string) (*entity.Subcategory, error)

	CreateProduct(ctx context.Context, req *entity.CreateProductRequest) (*entity.Product, error)
	GetProduct(ctx context.Context, id string) (*entity.ProductWithSubcategory, error)
	ListProducts(ctx context.Context, q entity.ListQuery) (*entity.Page[entity.Product], error)
	ListProductsBySubcategory(ctx context.Context, subcategoryID string) ([]entity.Product, error)
	CountProducts(ctx context.Context) (int64, error)
	FilterProducts(ctx context.Context, categoryIDs, subcategoryIDs []string) ([]entity.Product, error)
	UpdateProduct(ctx context.Context, id string, req *entity.UpdateProductRequest) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id string) (*entity.Product, error)

	IntegrityReport(ctx context.Context) (*entity.IntegrityReport, error)
}

var _ CatalogServiceInterface = (*CatalogService)(nil)
