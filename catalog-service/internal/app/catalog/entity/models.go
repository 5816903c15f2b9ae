package entity

import "time"

// Типы сущностей каталога, используются в событиях, метриках и ключах кеша
const (
	EntityCategory    = "category"
	EntitySubcategory = "subcategory"
	EntityProduct     = "product"
)

// Link - пара (текст, URL) для блока ссылок на странице категории
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Metadata - SEO и отображаемые поля, общие для всех уровней каталога
type Metadata struct {
	UniqueID        string `json:"uniqueId,omitempty"`
	LiveURL         string `json:"liveUrl,omitempty"`
	MetaTitle       string `json:"metaTitle,omitempty"`
	MetaKeyword     string `json:"metaKeyword,omitempty"`
	MetaDescription string `json:"metaDescription,omitempty"`
	ImageURL        string `json:"imageUrl,omitempty"`
}

// Category - категория верхнего уровня
// MappedChildren - список смежности на другие категории, циклы не запрещены
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"` // уникально среди категорий
	Metadata
	MappedChildren []string  `json:"mappedChildren"`
	Paragraph      string    `json:"paragraph,omitempty"`
	Links          []Link    `json:"links"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Subcategory - подкатегория, принадлежит ровно одной категории
type Subcategory struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MappedParent string `json:"mappedParent"` // ID категории
	Metadata
	Paragraph string    `json:"paragraph,omitempty"`
	Links     []Link    `json:"links"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Product - товар, принадлежит ровно одной подкатегории
// Имя уникально в пределах подкатегории
type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MappedParent string `json:"mappedParent"` // ID подкатегории
	Metadata
	Description string    `json:"description,omitempty"` // rich text (HTML)
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductWithSubcategory - товар с подгруженной подкатегорией
// Parent == nil, если подкатегория была удалена
type ProductWithSubcategory struct {
	Product
	Parent *Subcategory `json:"parent"`
}

// CategoryNode - категория-потомок с глубиной относительно корня обхода
type CategoryNode struct {
	Category
	Depth int `json:"depth"`
}

// IntegrityReport - сводка по каталогу для админки и метрик
// Orphan* - сущности, ссылающиеся на удаленного родителя (каскадного удаления нет)
type IntegrityReport struct {
	Categories          int64     `json:"categories"`
	Subcategories       int64     `json:"subcategories"`
	Products            int64     `json:"products"`
	OrphanSubcategories int64     `json:"orphanSubcategories"`
	OrphanProducts      int64     `json:"orphanProducts"`
	GeneratedAt         time.Time `json:"generatedAt"`
}

// Типы событий каталога для Kafka
const (
	EventCreated = "CREATED"
	EventUpdated = "UPDATED"
	EventDeleted = "DELETED"
)

// CatalogEvent - событие изменения каталога для Kafka
// EventType имеет вид CATEGORY_CREATED, PRODUCT_UPDATED и т.д.
type CatalogEvent struct {
	EventType  string    `json:"event_type"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Name       string    `json:"name"`
	ParentID   string    `json:"parent_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
