package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pepagora/catalog-service/internal/app/catalog/entity"
	"pepagora/catalog-service/internal/app/catalog/repository"
	"pepagora/pkg/metrics"
)

// === CATEGORIES ===

// CreateCategory создает категорию, имя должно быть уникальным
func (s *CatalogService) CreateCategory(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error) {
	category := req.ToCategory()

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			metrics.RecordCatalogConflict(entity.EntityCategory)
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.invalidate(ctx, entity.EntityCategory)
	s.publishEvent(ctx, entity.EntityCategory, entity.EventCreated, category.ID, category.Name, "")

	return category, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (*entity.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

// ListCategories возвращает страницу категорий, страницы кешируются
func (s *CatalogService) ListCategories(ctx context.Context, q entity.ListQuery) (*entity.Page[entity.Category], error) {
	q = q.Normalize(s.limits.Categories)

	return cachedPage(ctx, s.cache, entity.EntityCategory, q, func() (*entity.Page[entity.Category], error) {
		return fetchPage(ctx, "categories", q, q.ToSpec(), s.categoryRepo.Find, s.categoryRepo.Count)
	})
}

// UpdateCategory применяет частичное обновление: непереданные поля не меняются
func (s *CatalogService) UpdateCategory(ctx context.Context, id string, req *entity.UpdateCategoryRequest) (*entity.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(category)

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			return nil, ErrCategoryNotFound
		case errors.Is(err, repository.ErrCategoryAlreadyExists):
			metrics.RecordCatalogConflict(entity.EntityCategory)
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.invalidate(ctx, entity.EntityCategory)
	s.publishEvent(ctx, entity.EntityCategory, entity.EventUpdated, category.ID, category.Name, "")

	return category, nil
}

// DeleteCategory удаляет категорию и возвращает удаленную запись
// Подкатегории не удаляются каскадно
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) (*entity.Category, error) {
	category, err := s.categoryRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to delete category: %w", err)
	}

	s.invalidate(ctx, entity.EntityCategory)
	s.publishEvent(ctx, entity.EntityCategory, entity.EventDeleted, category.ID, category.Name, "")

	return category, nil
}

// CategoryDescendants обходит mappedChildren в ширину, начиная с категории id
// Каждая категория попадает в результат один раз, циклы не приводят к зацикливанию
// Несуществующие дочерние ID пропускаются
func (s *CatalogService) CategoryDescendants(ctx context.Context, id string) ([]entity.CategoryNode, error) {
	root, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	visited := entity.NewIDSet(root.ID)
	nodes := make([]entity.CategoryNode, 0)

	frontier := pendingChildren(visited, root.MappedChildren)
	for depth := 1; len(frontier) > 0; depth++ {
		level, err := s.categoryRepo.GetByIDs(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("failed to load child categories: %w", err)
		}

		// порядок уровня - порядок ID во frontier
		byID := make(map[string]entity.Category, len(level))
		for _, c := range level {
			byID[c.ID] = c
		}

		var next []string
		for _, childID := range frontier {
			child, ok := byID[childID]
			if !ok {
				continue
			}
			nodes = append(nodes, entity.CategoryNode{Category: child, Depth: depth})
			next = append(next, pendingChildren(visited, child.MappedChildren)...)
		}
		frontier = next
	}

	return nodes, nil
}

// pendingChildren отмечает и возвращает еще не посещенные ID
func pendingChildren(visited *entity.IDSet, children []string) []string {
	var out []string
	for _, id := range children {
		if id == "" || visited.Contains(id) {
			continue
		}
		visited.Add(id)
		out = append(out, id)
	}
	return out
}

// IntegrityReport считает сущности и сирот (родитель удален)
func (s *CatalogService) IntegrityReport(ctx context.Context) (*entity.IntegrityReport, error) {
	var (
		report entity.IntegrityReport
		err    error
	)

	if report.Categories, err = s.categoryRepo.Count(ctx, entity.Filter{}); err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	if report.Subcategories, err = s.subcategoryRepo.Count(ctx, entity.Filter{}); err != nil {
		return nil, fmt.Errorf("failed to count subcategories: %w", err)
	}
	if report.Products, err = s.productRepo.Count(ctx, entity.Filter{}); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if report.OrphanSubcategories, err = s.subcategoryRepo.CountOrphans(ctx); err != nil {
		return nil, fmt.Errorf("failed to count orphan subcategories: %w", err)
	}
	if report.OrphanProducts, err = s.productRepo.CountOrphans(ctx); err != nil {
		return nil, fmt.Errorf("failed to count orphan products: %w", err)
	}

	report.GeneratedAt = time.Now().UTC()
	return &report, nil
}
