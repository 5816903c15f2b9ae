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

type postgresProductRepository struct {
	db *gorm.DB
}

// NewPostgresProductRepository создает репозиторий товаров на PostgreSQL (gorm)
func NewPostgresProductRepository(db *gorm.DB) ProductRepository {
	return &postgresProductRepository{db: db}
}

// Create - пара (mapped_parent, name) уникальна, нарушение -> ErrProductAlreadyExists
func (r *postgresProductRepository) Create(ctx context.Context, product *entity.Product) error {
	if !isValidUUID(product.MappedParent) {
		return fmt.Errorf("invalid mappedParent %q", product.MappedParent)
	}

	now := time.Now().UTC()
	product.ID = uuid.NewString()
	product.CreatedAt = now
	product.UpdatedAt = now

	record := newProductRecord(product)

	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpInsert, ProductsCollection)
	err := r.db.WithContext(ctx).Create(&record).Error
	observeGorm(timer, err)
	if err != nil {
		product.ID = ""
		if isUniqueViolation(err) {
			return ErrProductAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *postgresProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if !isValidUUID(id) {
		return nil, ErrProductNotFound
	}

	var record productRecord
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpSelect, ProductsCollection)
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	observeGorm(timer, err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	product := record.toEntity()
	return &product, nil
}

func (r *postgresProductRepository) Find(ctx context.Context, spec entity.QuerySpec) ([]entity.Product, error) {
	var records []productRecord

	q := applyFilter(r.db.WithContext(ctx).Model(&productRecord{}), spec.Filter)
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpSelect, ProductsCollection)
	err := applyPaging(q, spec).Find(&records).Error
	observeGorm(timer, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}

	products := make([]entity.Product, 0, len(records))
	for i := range records {
		products = append(products, records[i].toEntity())
	}
	return products, nil
}

func (r *postgresProductRepository) Count(ctx context.Context, filter entity.Filter) (int64, error) {
	var count int64
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpCount, ProductsCollection)
	err := applyFilter(r.db.WithContext(ctx).Model(&productRecord{}), filter).Count(&count).Error
	observeGorm(timer, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

func (r *postgresProductRepository) ExistsByNameInSubcategory(ctx context.Context, subcategoryID, name string) (bool, error) {
	if !isValidUUID(subcategoryID) {
		return false, nil
	}

	var count int64
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpCount, ProductsCollection)
	err := r.db.WithContext(ctx).Model(&productRecord{}).
		Where("mapped_parent = ? AND name = ?", subcategoryID, name).
		Count(&count).Error
	observeGorm(timer, err)
	if err != nil {
		return false, fmt.Errorf("failed to check product name: %w", err)
	}
	return count > 0, nil
}

// CountOrphans - товары без существующей подкатегории
func (r *postgresProductRepository) CountOrphans(ctx context.Context) (int64, error) {
	var count int64
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpAggregate, ProductsCollection)
	err := r.db.WithContext(ctx).Table("products AS p").
		Joins("LEFT JOIN subcategories s ON s.id = p.mapped_parent").
		Where("s.id IS NULL").
		Count(&count).Error
	observeGorm(timer, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count orphan products: %w", err)
	}
	return count, nil
}

func (r *postgresProductRepository) Update(ctx context.Context, product *entity.Product) error {
	if !isValidUUID(product.ID) {
		return ErrProductNotFound
	}
	if !isValidUUID(product.MappedParent) {
		return fmt.Errorf("invalid mappedParent %q", product.MappedParent)
	}

	product.UpdatedAt = time.Now().UTC()
	record := newProductRecord(product)

	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpUpdate, ProductsCollection)
	result := r.db.WithContext(ctx).Model(&record).Select("*").Omit("id", "created_at").Updates(&record)
	observeGorm(timer, result.Error)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrProductAlreadyExists
		}
		return fmt.Errorf("failed to update product: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *postgresProductRepository) Delete(ctx context.Context, id string) (*entity.Product, error) {
	if !isValidUUID(id) {
		return nil, ErrProductNotFound
	}

	var record productRecord
	timer := metrics.NewDbTimer(backendPostgres, metrics.DbOpDelete, ProductsCollection)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&productRecord{}, "id = ?", id).Error
	})
	observeGorm(timer, err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}

	product := record.toEntity()
	return &product, nil
}
