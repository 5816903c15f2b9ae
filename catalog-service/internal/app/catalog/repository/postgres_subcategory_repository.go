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

type postgresSubcategoryRepository struct {
	db *gorm.DB
}

// NewPostgresSubcategoryRepository создает репозиторий подкатегорий на PostgreSQL (gorm)
func NewPostgresSubcategoryRepository(db *gorm.DB) SubcategoryRepository {
	return &postgresSubcategoryRepository{db: db}
}

func (r *postgresSubcategoryRepository) Create(ctx context.Context, subcategory *entity.Subcategory) error {
	if !isValidUUID(subcategory.MappedParent) {
		return fmt.Errorf("invalid mappedParent %q", subcategory.MappedParent)
	}

	now := time.Now().UTC()
	subcategory.ID = uuid.NewString()
	subcategory.CreatedAt = now
	subcategory.UpdatedAt = now

	record := newSubcategoryRecord(subcategory)

	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpInsert, SubcategoriesCollection)
	err := r.db.WithContext(ctx).Create(&record).Error
	observeGorm(timer, err)
	if err != nil {
		subcategory.ID = ""
		return fmt.Errorf("failed to create subcategory: %w", err)
	}

	subcategory.Links = record.Links
	return nil
}

func (r *postgresSubcategoryRepository) GetByID(ctx context.Context, id string) (*entity.Subcategory, error) {
	if !isValidUUID(id) {
		return nil, ErrSubcategoryNotFound
	}

	var record subcategoryRecord
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpSelect, SubcategoriesCollection)
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	observeGorm(timer, err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubcategoryNotFound
		}
		return nil, fmt.Errorf("failed to get subcategory: %w", err)
	}

	subcategory := record.toEntity()
	return &subcategory, nil
}

func (r *postgresSubcategoryRepository) Find(ctx context.Context, spec entity.QuerySpec) ([]entity.Subcategory, error) {
	var records []subcategoryRecord

	q := applyFilter(r.db.WithContext(ctx).Model(&subcategoryRecord{}), spec.Filter)
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpSelect, SubcategoriesCollection)
	err := applyPaging(q, spec).Find(&records).Error
	observeGorm(timer, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find subcategories: %w", err)
	}

	subcategories := make([]entity.Subcategory, 0, len(records))
	for i := range records {
		subcategories = append(subcategories, records[i].toEntity())
	}
	return subcategories, nil
}

func (r *postgresSubcategoryRepository) Count(ctx context.Context, filter entity.Filter) (int64, error) {
	var count int64
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpCount, SubcategoriesCollection)
	err := applyFilter(r.db.WithContext(ctx).Model(&subcategoryRecord{}), filter).Count(&count).Error
	observeGorm(timer, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count subcategories: %w", err)
	}
	return count, nil
}

func (r *postgresSubcategoryRepository) IDsByParents(ctx context.Context, categoryIDs []string) ([]string, error) {
	parents := validUUIDs(categoryIDs)
	if len(parents) == 0 {
		return []string{}, nil
	}

	ids := []string{}
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpSelect, SubcategoriesCollection)
	err := r.db.WithContext(ctx).Model(&subcategoryRecord{}).
		Where("mapped_parent IN ?", parents).
		Pluck("id", &ids).Error
	observeGorm(timer, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find subcategories by parents: %w", err)
	}
	return ids, nil
}

// CountOrphans - подкатегории без существующей категории (LEFT JOIN ... IS NULL)
func (r *postgresSubcategoryRepository) CountOrphans(ctx context.Context) (int64, error) {
	var count int64
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpAggregate, SubcategoriesCollection)
	err := r.db.WithContext(ctx).Table("subcategories AS s").
		Joins("LEFT JOIN categories c ON c.id = s.mapped_parent").
		Where("c.id IS NULL").
		Count(&count).Error
	observeGorm(timer, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count orphan subcategories: %w", err)
	}
	return count, nil
}

func (r *postgresSubcategoryRepository) Update(ctx context.Context, subcategory *entity.Subcategory) error {
	if !isValidUUID(subcategory.ID) {
		return ErrSubcategoryNotFound
	}
	if !isValidUUID(subcategory.MappedParent) {
		return fmt.Errorf("invalid mappedParent %q", subcategory.MappedParent)
	}

	subcategory.UpdatedAt = time.Now().UTC()
	record := newSubcategoryRecord(subcategory)

	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpUpdate, SubcategoriesCollection)
	result := r.db.WithContext(ctx).Model(&record).Select("*").Omit("id", "created_at").Updates(&record)
	observeGorm(timer, result.Error)
	if result.Error != nil {
		return fmt.Errorf("failed to update subcategory: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrSubcategoryNotFound
	}
	return nil
}

func (r *postgresSubcategoryRepository) Delete(ctx context.Context, id string) (*entity.Subcategory, error) {
	if !isValidUUID(id) {
		return nil, ErrSubcategoryNotFound
	}

	var record subcategoryRecord
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpDelete, SubcategoriesCollection)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&subcategoryRecord{}, "id = ?", id).Error
	})
	observeGorm(timer, err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubcategoryNotFound
		}
		return nil, fmt.Errorf("failed to delete subcategory: %w", err)
	}

	subcategory := record.toEntity()
	return &subcategory, nil
}
