package repository

import (
	"context"
	"errors"

	"pepagora/catalog-service/internal/app/catalog/entity"
)

// Стандартные ошибки репозитория для обработки в service layer
// Некорректный ID (не ObjectID / не UUID) считается несуществующей записью
var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this name already exists")
	ErrSubcategoryNotFound   = errors.New("subcategory not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrProductAlreadyExists  = errors.New("product with this name already exists in subcategory")
)

// Имена коллекций / таблиц
const (
	CategoriesCollection    = "categories"
	SubcategoriesCollection = "subcategories"
	ProductsCollection      = "products"
)

// Find принимает QuerySpec целиком: фильтр, сортировка, skip и limit
// Count считает записи по тому же фильтру без пагинации (пустой фильтр - все записи)

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	GetByIDs(ctx context.Context, ids []string) ([]entity.Category, error)
	Find(ctx context.Context, spec entity.QuerySpec) ([]entity.Category, error)
	Count(ctx context.Context, filter entity.Filter) (int64, error)
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, id string) (*entity.Category, error)
}

type SubcategoryRepository interface {
	Create(ctx context.Context, subcategory *entity.Subcategory) error
	GetByID(ctx context.Context, id string) (*entity.Subcategory, error)
	Find(ctx context.Context, spec entity.QuerySpec) ([]entity.Subcategory, error)
	Count(ctx context.Context, filter entity.Filter) (int64, error)
	// IDsByParents возвращает ID подкатегорий, чей mappedParent входит в categoryIDs
	IDsByParents(ctx context.Context, categoryIDs []string) ([]string, error)
	// CountOrphans считает подкатегории, чья категория удалена
	CountOrphans(ctx context.Context) (int64, error)
	Update(ctx context.Context, subcategory *entity.Subcategory) error
	Delete(ctx context.Context, id string) (*entity.Subcategory, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	Find(ctx context.Context, spec entity.QuerySpec) ([]entity.Product, error)
	Count(ctx context.Context, filter entity.Filter) (int64, error)
	// ExistsByNameInSubcategory - точное совпадение имени в пределах подкатегории
	ExistsByNameInSubcategory(ctx context.Context, subcategoryID, name string) (bool, error)
	// CountOrphans считает товары, чья подкатегория удалена
	CountOrphans(ctx context.Context) (int64, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id string) (*entity.Product, error)
}
