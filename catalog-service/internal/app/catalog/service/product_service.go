package service

import (
	"context"
	"errors"
	"fmt"

	"pepagora/catalog-service/internal/app/catalog/entity"
	"pepagora/catalog-service/internal/app/catalog/repository"
	"pepagora/pkg/metrics"
)

// === PRODUCTS ===

func (s *CatalogService) ensureSubcategoryExists(ctx context.Context, id string) error {
	if _, err := s.subcategoryRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrSubcategoryNotFound) {
			return ErrParentSubcategoryNotFound
		}
		return fmt.Errorf("failed to check parent subcategory: %w", err)
	}
	return nil
}

// CreateProduct создает товар в существующей подкатегории
// Имя проверяется заранее, а гонку двух одновременных запросов закрывает уникальный индекс
func (s *CatalogService) CreateProduct(ctx context.Context, req *entity.CreateProductRequest) (*entity.Product, error) {
	if err := s.ensureSubcategoryExists(ctx, req.MappedParent); err != nil {
		return nil, err
	}

	exists, err := s.productRepo.ExistsByNameInSubcategory(ctx, req.MappedParent, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check product name: %w", err)
	}
	if exists {
		metrics.RecordCatalogConflict(entity.EntityProduct)
		return nil, ErrProductExists
	}

	product := req.ToProduct()
	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductAlreadyExists) {
			metrics.RecordCatalogConflict(entity.EntityProduct)
			return nil, ErrProductExists
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.publishEvent(ctx, entity.EntityProduct, entity.EventCreated, product.ID, product.Name, product.MappedParent)

	return product, nil
}

func (s *CatalogService) getProduct(ctx context.Context, id string) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// GetProduct возвращает товар вместе с подкатегорией
// Если подкатегория удалена, Parent == nil
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*entity.ProductWithSubcategory, error) {
	product, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &entity.ProductWithSubcategory{Product: *product}

	parent, err := s.subcategoryRepo.GetByID(ctx, product.MappedParent)
	switch {
	case err == nil:
		result.Parent = parent
	case errors.Is(err, repository.ErrSubcategoryNotFound):
	default:
		return nil, fmt.Errorf("failed to get product subcategory: %w", err)
	}

	return result, nil
}

// ListProducts возвращает страницу товаров (без кеша: список большой и часто меняется)
func (s *CatalogService) ListProducts(ctx context.Context, q entity.ListQuery) (*entity.Page[entity.Product], error) {
	q = q.Normalize(s.limits.Products)
	return fetchPage(ctx, "products", q, q.ToSpec(), s.productRepo.Find, s.productRepo.Count)
}

// ListProductsBySubcategory возвращает все товары подкатегории без пагинации
func (s *CatalogService) ListProductsBySubcategory(ctx context.Context, subcategoryID string) ([]entity.Product, error) {
	spec := entity.QuerySpec{
		Filter: entity.Filter{Parent: entity.ParentIn(subcategoryID)},
		Sort:   entity.Sort{Field: entity.SortByCreatedAt, Descending: true},
	}

	products, err := s.productRepo.Find(ctx, spec)
	if err != nil {
		return nil, fetchFailed("products", err)
	}
	if products == nil {
		products = []entity.Product{}
	}
	return products, nil
}

// CountProducts - общее количество товаров
func (s *CatalogService) CountProducts(ctx context.Context) (int64, error) {
	count, err := s.productRepo.Count(ctx, entity.Filter{})
	if err != nil {
		return 0, fetchFailed("products", err)
	}
	return count, nil
}

// UpdateProduct применяет частичное обновление
// Смена mappedParent проверяет новую подкатегорию, совпадение имени в ней - конфликт
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, req *entity.UpdateProductRequest) (*entity.Product, error) {
	product, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.MappedParent != nil && *req.MappedParent != product.MappedParent {
		if err := s.ensureSubcategoryExists(ctx, *req.MappedParent); err != nil {
			return nil, err
		}
	}

	req.Apply(product)

	if err := s.productRepo.Update(ctx, product); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, ErrProductNotFound
		case errors.Is(err, repository.ErrProductAlreadyExists):
			metrics.RecordCatalogConflict(entity.EntityProduct)
			return nil, ErrProductExists
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.publishEvent(ctx, entity.EntityProduct, entity.EventUpdated, product.ID, product.Name, product.MappedParent)

	return product, nil
}

// DeleteProduct удаляет товар и возвращает удаленную запись
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) (*entity.Product, error) {
	product, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}

	s.publishEvent(ctx, entity.EntityProduct, entity.EventDeleted, product.ID, product.Name, product.MappedParent)

	return product, nil
}

// ResolveSubcategoryFilter строит фильтр товаров по категориям и подкатегориям:
//   - категории заданы: подкатегории этих категорий плюс явно переданные (без повторов)
//   - только подкатегории: ровно они
//   - ничего не задано: фильтра нет
//
// Категории без подкатегорий дают включенный фильтр с пустым набором (ничего не подходит)
func (s *CatalogService) ResolveSubcategoryFilter(ctx context.Context, categoryIDs, subcategoryIDs []string) (entity.ParentFilter, error) {
	if len(categoryIDs) == 0 && len(subcategoryIDs) == 0 {
		return entity.AnyParent(), nil
	}

	set := entity.NewIDSet()

	if len(categoryIDs) > 0 {
		derived, err := s.subcategoryRepo.IDsByParents(ctx, categoryIDs)
		if err != nil {
			return entity.ParentFilter{}, fetchFailed("subcategories", err)
		}
		set.Add(derived...)
	}
	set.Add(subcategoryIDs...)

	return entity.ParentIn(set.Slice()...), nil
}

// FilterProducts возвращает товары по фильтру категорий/подкатегорий
// в естественном порядке хранилища, без пагинации
func (s *CatalogService) FilterProducts(ctx context.Context, categoryIDs, subcategoryIDs []string) ([]entity.Product, error) {
	parent, err := s.ResolveSubcategoryFilter(ctx, categoryIDs, subcategoryIDs)
	if err != nil {
		return nil, err
	}

	products := []entity.Product{}
	if parent.MatchesNothing() {
		return products, nil
	}

	found, err := s.productRepo.Find(ctx, entity.QuerySpec{Filter: entity.Filter{Parent: parent}})
	if err != nil {
		return nil, fetchFailed("products", err)
	}
	return append(products, found...), nil
}
