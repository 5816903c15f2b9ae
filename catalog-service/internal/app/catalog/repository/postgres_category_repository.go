package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pepagora/catalog-service/internal/app/catalog/entity"
	"pepagora/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type postgresCategoryRepository struct {
	db *gorm.DB
}

// NewPostgresCategoryRepository создает репозиторий категорий на PostgreSQL (gorm)
func NewPostgresCategoryRepository(db *gorm.DB) CategoryRepository {
	return &postgresCategoryRepository{db: db}
}

// observeGorm записывает метрику запроса, отсутствие записи ошибкой не считается
func observeGorm(timer *metrics.DbTimer, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = nil
	}
	timer.Observe(err)
}

// Create проверяет уникальность имени через UNIQUE constraint
func (r *postgresCategoryRepository) Create(ctx context.Context, category *entity.Category) error {
	now := time.Now().UTC()
	category.ID = uuid.NewString()
	category.CreatedAt = now
	category.UpdatedAt = now

	record := newCategoryRecord(category)

	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpInsert, CategoriesCollection)
	err := r.db.WithContext(ctx).Create(&record).Error
	observeGorm(timer, err)
	if err != nil {
		category.ID = ""
		if isUniqueViolation(err) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	category.MappedChildren = record.MappedChildren
	category.Links = record.Links
	return nil
}

func (r *postgresCategoryRepository) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	if !isValidUUID(id) {
		return nil, ErrCategoryNotFound
	}

	var record categoryRecord
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpSelect, CategoriesCollection)
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	observeGorm(timer, err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	category := record.toEntity()
	return &category, nil
}

func (r *postgresCategoryRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.Category, error) {
	valid := validUUIDs(ids)
	if len(valid) == 0 {
		return []entity.Category{}, nil
	}

	var records []categoryRecord
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpSelect, CategoriesCollection)
	err := r.db.WithContext(ctx).Where("id IN ?", valid).Find(&records).Error
	observeGorm(timer, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories by ids: %w", err)
	}

	return categoriesFromRecords(records), nil
}

func (r *postgresCategoryRepository) Find(ctx context.Context, spec entity.QuerySpec) ([]entity.Category, error) {
	var records []categoryRecord

	q := applyFilter(r.db.WithContext(ctx).Model(&categoryRecord{}), spec.Filter)
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpSelect, CategoriesCollection)
	err := applyPaging(q, spec).Find(&records).Error
	observeGorm(timer, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find categories: %w", err)
	}

	return categoriesFromRecords(records), nil
}

func categoriesFromRecords(records []categoryRecord) []entity.Category {
	categories := make([]entity.Category, 0, len(records))
	for i := range records {
		categories = append(categories, records[i].toEntity())
	}
	return categories
}

func (r *postgresCategoryRepository) Count(ctx context.Context, filter entity.Filter) (int64, error) {
	var count int64
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpCount, CategoriesCollection)
	err := applyFilter(r.db.WithContext(ctx).Model(&categoryRecord{}), filter).Count(&count).Error
	observeGorm(timer, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}

// Update записывает все изменяемые поля, включая пустые значения
func (r *postgresCategoryRepository) Update(ctx context.Context, category *entity.Category) error {
	if !isValidUUID(category.ID) {
		return ErrCategoryNotFound
	}

	category.UpdatedAt = time.Now().UTC()
	record := newCategoryRecord(category)

	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpUpdate, CategoriesCollection)
	result := r.db.WithContext(ctx).Model(&record).Select("*").Omit("id", "created_at").Updates(&record)
	observeGorm(timer, result.Error)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to update category: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// Delete в одной транзакции читает и удаляет категорию, возвращает удаленную запись
func (r *postgresCategoryRepository) Delete(ctx context.Context, id string) (*entity.Category, error) {
	if !isValidUUID(id) {
		return nil, ErrCategoryNotFound
	}

	var record categoryRecord
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpDelete, CategoriesCollection)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&categoryRecord{}, "id = ?", id).Error
	})
	observeGorm(timer, err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to delete category: %w", err)
	}

	category := record.toEntity()
	return &category, nil
}
