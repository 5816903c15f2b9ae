package service

import (
	"context"
	"errors"
	"testing"

	"pepagora/catalog-service/internal/app/catalog/entity"
	"pepagora/catalog-service/internal/app/catalog/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_CreateSubcategory_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.categoryRepo.On("GetByID", ctx, "c1").Return(&entity.Category{ID: "c1"}, nil)
	f.subcategoryRepo.On("Create", ctx, mock.AnythingOfType("*entity.Subcategory")).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.Subcategory).ID = "s1"
	}).Return(nil)
	f.cache.On("InvalidateLists", ctx, entity.EntitySubcategory).Return(nil)
	f.expectEvent(ctx, "s1", "SUBCATEGORY_CREATED")

	subcategory, err := f.service.CreateSubcategory(ctx, &entity.CreateSubcategoryRequest{Name: "Phones", MappedParent: "c1"})

	require.NoError(t, err)
	assert.Equal(t, "s1", subcategory.ID)
	assert.Equal(t, "c1", subcategory.MappedParent)
	f.assertExpectations(t)
}

func TestCatalogService_CreateSubcategory_MissingParent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.categoryRepo.On("GetByID", ctx, "gone").Return(nil, repository.ErrCategoryNotFound)

	_, err := f.service.CreateSubcategory(ctx, &entity.CreateSubcategoryRequest{Name: "Phones", MappedParent: "gone"})

	assert.ErrorIs(t, err, ErrParentCategoryNotFound)
	f.subcategoryRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCatalogService_ListSubcategories_UsesOwnLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	q := entity.ParseListQuery("1", "1000", "", "", "").Normalize(testLimits.Subcategories)
	require.Equal(t, 1000, q.Limit)

	f.cache.On("GetList", ctx, entity.EntitySubcategory, q.CacheKey()).Return(nil, nil)
	f.subcategoryRepo.On("Find", ctx, q.ToSpec()).Return([]entity.Subcategory{{ID: "s1"}}, nil)
	f.subcategoryRepo.On("Count", ctx, entity.Filter{}).Return(int64(1), nil)
	f.cache.On("SetList", ctx, entity.EntitySubcategory, q.CacheKey(), mock.Anything).Return(nil)

	page, err := f.service.ListSubcategories(ctx, entity.ParseListQuery("1", "1000", "", "", ""))

	require.NoError(t, err)
	assert.Equal(t, 1000, page.Limit)
	assert.Equal(t, int64(1), page.TotalPages)
	f.assertExpectations(t)
}

func TestCatalogService_ListSubcategoriesByCategory(t *testing.T) {
	ctx := context.Background()
	spec := entity.QuerySpec{
		Filter: entity.Filter{Parent: entity.ParentIn("c1")},
		Sort:   entity.Sort{Field: entity.SortByCreatedAt, Descending: true},
	}

	t.Run("returns all without pagination", func(t *testing.T) {
		f := newFixture()
		f.subcategoryRepo.On("Find", ctx, spec).Return([]entity.Subcategory{{ID: "s1"}, {ID: "s2"}}, nil)

		subcategories, err := f.service.ListSubcategoriesByCategory(ctx, "c1")

		require.NoError(t, err)
		assert.Len(t, subcategories, 2)
	})

	t.Run("empty result is not nil", func(t *testing.T) {
		f := newFixture()
		f.subcategoryRepo.On("Find", ctx, spec).Return(nil, nil)

		subcategories, err := f.service.ListSubcategoriesByCategory(ctx, "c1")

		require.NoError(t, err)
		assert.NotNil(t, subcategories)
		assert.Empty(t, subcategories)
	})

	t.Run("storage failure", func(t *testing.T) {
		f := newFixture()
		f.subcategoryRepo.On("Find", ctx, spec).Return(nil, errors.New("down"))

		_, err := f.service.ListSubcategoriesByCategory(ctx, "c1")

		assert.ErrorIs(t, err, ErrFetchFailed)
	})
}

func TestCatalogService_UpdateSubcategory_ParentCheckedOnlyWhenChanged(t *testing.T) {
	ctx := context.Background()

	t.Run("same parent skips check", func(t *testing.T) {
		f := newFixture()
		f.subcategoryRepo.On("GetByID", ctx, "s1").Return(&entity.Subcategory{ID: "s1", Name: "Phones", MappedParent: "c1"}, nil)
		f.subcategoryRepo.On("Update", ctx, mock.AnythingOfType("*entity.Subcategory")).Return(nil)
		f.cache.On("InvalidateLists", ctx, entity.EntitySubcategory).Return(nil)
		f.expectEvent(ctx, "s1", "SUBCATEGORY_UPDATED")

		updated, err := f.service.UpdateSubcategory(ctx, "s1", &entity.UpdateSubcategoryRequest{
			Name:         strPtr("Smartphones"),
			MappedParent: strPtr("c1"),
		})

		require.NoError(t, err)
		assert.Equal(t, "Smartphones", updated.Name)
		f.categoryRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("new parent must exist", func(t *testing.T) {
		f := newFixture()
		f.subcategoryRepo.On("GetByID", ctx, "s1").Return(&entity.Subcategory{ID: "s1", MappedParent: "c1"}, nil)
		f.categoryRepo.On("GetByID", ctx, "c2").Return(nil, repository.ErrCategoryNotFound)

		_, err := f.service.UpdateSubcategory(ctx, "s1", &entity.UpdateSubcategoryRequest{MappedParent: strPtr("c2")})

		assert.ErrorIs(t, err, ErrParentCategoryNotFound)
		f.subcategoryRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("moved to existing parent", func(t *testing.T) {
		f := newFixture()
		f.subcategoryRepo.On("GetByID", ctx, "s1").Return(&entity.Subcategory{ID: "s1", Paragraph: "Keep", MappedParent: "c1"}, nil)
		f.categoryRepo.On("GetByID", ctx, "c2").Return(&entity.Category{ID: "c2"}, nil)
		f.subcategoryRepo.On("Update", ctx, mock.AnythingOfType("*entity.Subcategory")).Return(nil)
		f.cache.On("InvalidateLists", ctx, entity.EntitySubcategory).Return(nil)
		f.expectEvent(ctx, "s1", "SUBCATEGORY_UPDATED")

		updated, err := f.service.UpdateSubcategory(ctx, "s1", &entity.UpdateSubcategoryRequest{MappedParent: strPtr("c2")})

		require.NoError(t, err)
		assert.Equal(t, "c2", updated.MappedParent)
		assert.Equal(t, "Keep", updated.Paragraph)
		f.assertExpectations(t)
	})
}

func TestCatalogService_UpdateSubcategory_Missing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.subcategoryRepo.On("GetByID", ctx, "missing").Return(nil, repository.ErrSubcategoryNotFound)

	_, err := f.service.UpdateSubcategory(ctx, "missing", &entity.UpdateSubcategoryRequest{})

	assert.ErrorIs(t, err, ErrSubcategoryNotFound)
}

func TestCatalogService_DeleteSubcategory(t *testing.T) {
	ctx := context.Background()

	t.Run("returns deleted subcategory", func(t *testing.T) {
		f := newFixture()
		deleted := &entity.Subcategory{ID: "s1", Name: "Phones", MappedParent: "c1"}
		f.subcategoryRepo.On("Delete", ctx, "s1").Return(deleted, nil)
		f.cache.On("InvalidateLists", ctx, entity.EntitySubcategory).Return(nil)
		f.expectEvent(ctx, "s1", "SUBCATEGORY_DELETED")

		subcategory, err := f.service.DeleteSubcategory(ctx, "s1")

		require.NoError(t, err)
		assert.Equal(t, deleted, subcategory)
		f.assertExpectations(t)
	})

	t.Run("missing subcategory", func(t *testing.T) {
		f := newFixture()
		f.subcategoryRepo.On("Delete", ctx, "missing").Return(nil, repository.ErrSubcategoryNotFound)

		_, err := f.service.DeleteSubcategory(ctx, "missing")

		assert.ErrorIs(t, err, ErrSubcategoryNotFound)
	})
}
