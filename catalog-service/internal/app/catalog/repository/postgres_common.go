package repository

import (
	"errors"
	"strings"
	"time"

	"pepagora/catalog-service/internal/app/catalog/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const backendPostgres = "postgres"

// Записи gorm. Метаданные разворачиваются в колонки (unique_id, live_url, ...),
// списки хранятся в JSON колонках

type categoryRecord struct {
	ID             string          `gorm:"type:uuid;primaryKey"`
	Name           string          `gorm:"not null;uniqueIndex:idx_categories_name"`
	Metadata       entity.Metadata `gorm:"embedded"`
	MappedChildren []string        `gorm:"serializer:json"`
	Paragraph      string
	Links          []entity.Link `gorm:"serializer:json"`
	CreatedAt      time.Time     `gorm:"index"`
	UpdatedAt      time.Time
}

func (categoryRecord) TableName() string { return CategoriesCollection }

type subcategoryRecord struct {
	ID           string          `gorm:"type:uuid;primaryKey"`
	Name         string          `gorm:"not null"`
	MappedParent string          `gorm:"type:uuid;not null;index:idx_subcategories_parent"`
	Metadata     entity.Metadata `gorm:"embedded"`
	Paragraph    string
	Links        []entity.Link `gorm:"serializer:json"`
	CreatedAt    time.Time     `gorm:"index"`
	UpdatedAt    time.Time
}

func (subcategoryRecord) TableName() string { return SubcategoriesCollection }

type productRecord struct {
	ID           string          `gorm:"type:uuid;primaryKey"`
	Name         string          `gorm:"not null;uniqueIndex:idx_products_parent_name,priority:2"`
	MappedParent string          `gorm:"type:uuid;not null;uniqueIndex:idx_products_parent_name,priority:1"`
	Metadata     entity.Metadata `gorm:"embedded"`
	Description  string
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

func (productRecord) TableName() string { return ProductsCollection }

func newCategoryRecord(c *entity.Category) categoryRecord {
	children := c.MappedChildren
	if children == nil {
		children = []string{}
	}
	links := c.Links
	if links == nil {
		links = []entity.Link{}
	}
	return categoryRecord{
		ID:             c.ID,
		Name:           c.Name,
		Metadata:       c.Metadata,
		MappedChildren: children,
		Paragraph:      c.Paragraph,
		Links:          links,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (r *categoryRecord) toEntity() entity.Category {
	children := r.MappedChildren
	if children == nil {
		children = []string{}
	}
	links := r.Links
	if links == nil {
		links = []entity.Link{}
	}
	return entity.Category{
		ID:             r.ID,
		Name:           r.Name,
		Metadata:       r.Metadata,
		MappedChildren: children,
		Paragraph:      r.Paragraph,
		Links:          links,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func newSubcategoryRecord(s *entity.Subcategory) subcategoryRecord {
	links := s.Links
	if links == nil {
		links = []entity.Link{}
	}
	return subcategoryRecord{
		ID:           s.ID,
		Name:         s.Name,
		MappedParent: s.MappedParent,
		Metadata:     s.Metadata,
		Paragraph:    s.Paragraph,
		Links:        links,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func (r *subcategoryRecord) toEntity() entity.Subcategory {
	links := r.Links
	if links == nil {
		links = []entity.Link{}
	}
	return entity.Subcategory{
		ID:           r.ID,
		Name:         r.Name,
		MappedParent: r.MappedParent,
		Metadata:     r.Metadata,
		Paragraph:    r.Paragraph,
		Links:        links,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func newProductRecord(p *entity.Product) productRecord {
	return productRecord{
		ID:           p.ID,
		Name:         p.Name,
		MappedParent: p.MappedParent,
		Metadata:     p.Metadata,
		Description:  p.Description,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (r *productRecord) toEntity() entity.Product {
	return entity.Product{
		ID:           r.ID,
		Name:         r.Name,
		MappedParent: r.MappedParent,
		Metadata:     r.Metadata,
		Description:  r.Description,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// AutoMigrate создает таблицы и индексы каталога в PostgreSQL
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&categoryRecord{}, &subcategoryRecord{}, &productRecord{})
}

// isValidUUID - ID в PostgreSQL хранятся как uuid, другая строка не найдет ни одной записи
func isValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validUUIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isValidUUID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}

// isUniqueViolation проверяет нарушение UNIQUE constraint (код 23505)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike экранирует спецсимволы LIKE, чтобы строка поиска совпадала буквально
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// applyFilter добавляет условия Filter к запросу
// Фильтр по родителю без корректных ID не находит ничего
func applyFilter(q *gorm.DB, f entity.Filter) *gorm.DB {
	if f.NameContains != "" {
		q = q.Where(`name ILIKE ? ESCAPE '\'`, "%"+escapeLike(f.NameContains)+"%")
	}
	if f.Parent.Enabled {
		ids := validUUIDs(f.Parent.IDs)
		if len(ids) == 0 {
			return q.Where("1 = 0")
		}
		q = q.Where("mapped_parent IN ?", ids)
	}
	return q
}

var postgresSortColumns = map[string]string{
	entity.SortByCreatedAt: "created_at",
	entity.SortByUpdatedAt: "updated_at",
	entity.SortByName:      "name",
}

// applyPaging добавляет сортировку (с id вторым ключом), OFFSET и LIMIT
func applyPaging(q *gorm.DB, spec entity.QuerySpec) *gorm.DB {
	if column, ok := postgresSortColumns[spec.Sort.Field]; ok {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: spec.Sort.Descending}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: spec.Sort.Descending})
	}
	if spec.Skip > 0 {
		q = q.Offset(int(spec.Skip))
	}
	if spec.Limit > 0 {
		q = q.Limit(int(spec.Limit))
	}
	return q
}
