package service

import (
	"context"
	"errors"
	"fmt"

	"pepagora/catalog-service/internal/app/catalog/entity"
	"pepagora/catalog-service/internal/app/catalog/repository"
)

// === SUBCATEGORIES ===

// ensureCategoryExists проверяет родителя подкатегории
func (s *CatalogService) ensureCategoryExists(ctx context.Context, id string) error {
	if _, err := s.categoryRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrParentCategoryNotFound
		}
		return fmt.Errorf("failed to check parent category: %w", err)
	}
	return nil
}

// CreateSubcategory создает подкатегорию в существующей категории
func (s *CatalogService) CreateSubcategory(ctx context.Context, req *entity.CreateSubcategoryRequest) (*entity.Subcategory, error) {
	if err := s.ensureCategoryExists(ctx, req.MappedParent); err != nil {
		return nil, err
	}

	subcategory := req.ToSubcategory()
	if err := s.subcategoryRepo.Create(ctx, subcategory); err != nil {
		return nil, fmt.Errorf("failed to create subcategory: %w", err)
	}

	s.invalidate(ctx, entity.EntitySubcategory)
	s.publishEvent(ctx, entity.EntitySubcategory, entity.EventCreated, subcategory.ID, subcategory.Name, subcategory.MappedParent)

	return subcategory, nil
}

func (s *CatalogService) GetSubcategory(ctx context.Context, id string) (*entity.Subcategory, error) {
	subcategory, err := s.subcategoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSubcategoryNotFound) {
			return nil, ErrSubcategoryNotFound
		}
		return nil, fmt.Errorf("failed to get subcategory: %w", err)
	}
	return subcategory, nil
}

// ListSubcategories возвращает страницу подкатегорий, страницы кешируются
func (s *CatalogService) ListSubcategories(ctx context.Context, q entity.ListQuery) (*entity.Page[entity.Subcategory], error) {
	q = q.Normalize(s.limits.Subcategories)

	return cachedPage(ctx, s.cache, entity.EntitySubcategory, q, func() (*entity.Page[entity.Subcategory], error) {
		return fetchPage(ctx, "subcategories", q, q.ToSpec(), s.subcategoryRepo.Find, s.subcategoryRepo.Count)
	})
}

// ListSubcategoriesByCategory возвращает все подкатегории категории без пагинации
func (s *CatalogService) ListSubcategoriesByCategory(ctx context.Context, categoryID string) ([]entity.Subcategory, error) {
	spec := entity.QuerySpec{
		Filter: entity.Filter{Parent: entity.ParentIn(categoryID)},
		Sort:   entity.Sort{Field: entity.SortByCreatedAt, Descending: true},
	}

	subcategories, err := s.subcategoryRepo.Find(ctx, spec)
	if err != nil {
		return nil, fetchFailed("subcategories", err)
	}
	if subcategories == nil {
		subcategories = []entity.Subcategory{}
	}
	return subcategories, nil
}

// UpdateSubcategory применяет частичное обновление
// Родитель проверяется только при смене mappedParent
func (s *CatalogService) UpdateSubcategory(ctx context.Context, id string, req *entity.UpdateSubcategoryRequest) (*entity.Subcategory, error) {
	subcategory, err := s.GetSubcategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.MappedParent != nil && *req.MappedParent != subcategory.MappedParent {
		if err := s.ensureCategoryExists(ctx, *req.MappedParent); err != nil {
			return nil, err
		}
	}

	req.Apply(subcategory)

	if err := s.subcategoryRepo.Update(ctx, subcategory); err != nil {
		if errors.Is(err, repository.ErrSubcategoryNotFound) {
			return nil, ErrSubcategoryNotFound
		}
		return nil, fmt.Errorf("failed to update subcategory: %w", err)
	}

	s.invalidate(ctx, entity.EntitySubcategory)
	s.publishEvent(ctx, entity.EntitySubcategory, entity.EventUpdated, subcategory.ID, subcategory.Name, subcategory.MappedParent)

	return subcategory, nil
}

// DeleteSubcategory удаляет подкатегорию, товары остаются
func (s *CatalogService) DeleteSubcategory(ctx context.Context, id string) (*entity.Subcategory, error) {
	subcategory, err := s.subcategoryRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSubcategoryNotFound) {
			return nil, ErrSubcategoryNotFound
		}
		return nil, fmt.Errorf("failed to delete subcategory: %w", err)
	}

	s.invalidate(ctx, entity.EntitySubcategory)
	s.publishEvent(ctx, entity.EntitySubcategory, entity.EventDeleted, subcategory.ID, subcategory.Name, subcategory.MappedParent)

	return subcategory, nil
}
