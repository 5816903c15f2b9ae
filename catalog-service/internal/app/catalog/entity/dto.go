package entity

import "pepagora/catalog-service/internal/app/catalog/validation"

// MetadataFields - метаданные в запросах на создание
type MetadataFields struct {
	UniqueID        string `json:"uniqueId" validate:"omitempty,max=100"`
	LiveURL         string `json:"liveUrl" validate:"omitempty,max=2048"`
	MetaTitle       string `json:"metaTitle" validate:"omitempty,max=300"`
	MetaKeyword     string `json:"metaKeyword" validate:"omitempty,max=1000"`
	MetaDescription string `json:"metaDescription" validate:"omitempty,max=2000"`
	ImageURL        string `json:"imageUrl" validate:"omitempty,max=2048"`
}

// ToMetadata переводит поля запроса в метаданные сущности
func (f MetadataFields) ToMetadata() Metadata {
	return Metadata{
		UniqueID:        f.UniqueID,
		LiveURL:         f.LiveURL,
		MetaTitle:       f.MetaTitle,
		MetaKeyword:     f.MetaKeyword,
		MetaDescription: f.MetaDescription,
		ImageURL:        f.ImageURL,
	}
}

// MetadataPatch - метаданные в запросах на частичное обновление
// nil означает "поле не передано"
type MetadataPatch struct {
	UniqueID        *string `json:"uniqueId" validate:"omitempty,max=100"`
	LiveURL         *string `json:"liveUrl" validate:"omitempty,max=2048"`
	MetaTitle       *string `json:"metaTitle" validate:"omitempty,max=300"`
	MetaKeyword     *string `json:"metaKeyword" validate:"omitempty,max=1000"`
	MetaDescription *string `json:"metaDescription" validate:"omitempty,max=2000"`
	ImageURL        *string `json:"imageUrl" validate:"omitempty,max=2048"`
}

// Apply меняет только переданные поля
func (p MetadataPatch) Apply(m *Metadata) {
	applyString(&m.UniqueID, p.UniqueID)
	applyString(&m.LiveURL, p.LiveURL)
	applyString(&m.MetaTitle, p.MetaTitle)
	applyString(&m.MetaKeyword, p.MetaKeyword)
	applyString(&m.MetaDescription, p.MetaDescription)
	applyString(&m.ImageURL, p.ImageURL)
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// LinkRequest - ссылка в запросе
type LinkRequest struct {
	Text string `json:"text" validate:"required,max=300"`
	URL  string `json:"url" validate:"required,max=2048"`
}

func toLinks(in []LinkRequest) []Link {
	links := make([]Link, 0, len(in))
	for _, l := range in {
		links = append(links, Link{Text: l.Text, URL: l.URL})
	}
	return links
}

// === CATEGORIES ===

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,notblank,max=200"`
	MetadataFields
	MappedChildren []string      `json:"mappedChildren" validate:"omitempty,dive,required"`
	Paragraph      string        `json:"paragraph" validate:"max=20000"`
	Links          []LinkRequest `json:"links" validate:"omitempty,dive"`
}

// ToCategory собирает новую категорию (без ID и временных меток)
func (r *CreateCategoryRequest) ToCategory() *Category {
	children := r.MappedChildren
	if children == nil {
		children = []string{}
	}
	return &Category{
		Name:           r.Name,
		Metadata:       r.MetadataFields.ToMetadata(),
		MappedChildren: children,
		Paragraph:      r.Paragraph,
		Links:          toLinks(r.Links),
	}
}

type UpdateCategoryRequest struct {
	Name *string `json:"name" validate:"omitempty,notblank,max=200"`
	MetadataPatch
	MappedChildren *[]string      `json:"mappedChildren" validate:"omitempty,dive,required"`
	Paragraph      *string        `json:"paragraph" validate:"omitempty,max=20000"`
	Links          *[]LinkRequest `json:"links" validate:"omitempty,dive"`
}

// Apply применяет частичное обновление к категории
func (r *UpdateCategoryRequest) Apply(c *Category) {
	applyString(&c.Name, r.Name)
	r.MetadataPatch.Apply(&c.Metadata)
	if r.MappedChildren != nil {
		c.MappedChildren = append([]string{}, (*r.MappedChildren)...)
	}
	applyString(&c.Paragraph, r.Paragraph)
	if r.Links != nil {
		c.Links = toLinks(*r.Links)
	}
}

// === SUBCATEGORIES ===

type CreateSubcategoryRequest struct {
	Name         string `json:"name" validate:"required,notblank,max=200"`
	MappedParent string `json:"mappedParent" validate:"required,notblank"`
	MetadataFields
	Paragraph string        `json:"paragraph" validate:"max=20000"`
	Links     []LinkRequest `json:"links" validate:"omitempty,dive"`
}

func (r *CreateSubcategoryRequest) ToSubcategory() *Subcategory {
	return &Subcategory{
		Name:         r.Name,
		MappedParent: r.MappedParent,
		Metadata:     r.MetadataFields.ToMetadata(),
		Paragraph:    r.Paragraph,
		Links:        toLinks(r.Links),
	}
}

type UpdateSubcategoryRequest struct {
	Name         *string `json:"name" validate:"omitempty,notblank,max=200"`
	MappedParent *string `json:"mappedParent" validate:"omitempty,notblank"`
	MetadataPatch
	Paragraph *string        `json:"paragraph" validate:"omitempty,max=20000"`
	Links     *[]LinkRequest `json:"links" validate:"omitempty,dive"`
}

func (r *UpdateSubcategoryRequest) Apply(s *Subcategory) {
	applyString(&s.Name, r.Name)
	applyString(&s.MappedParent, r.MappedParent)
	r.MetadataPatch.Apply(&s.Metadata)
	applyString(&s.Paragraph, r.Paragraph)
	if r.Links != nil {
		s.Links = toLinks(*r.Links)
	}
}

// === PRODUCTS ===

type CreateProductRequest struct {
	Name         string `json:"name" validate:"required,notblank,max=200"`
	MappedParent string `json:"mappedParent" validate:"required,notblank"`
	MetadataFields
	Description string `json:"description" validate:"max=100000"`
}

func (r *CreateProductRequest) ToProduct() *Product {
	return &Product{
		Name:         r.Name,
		MappedParent: r.MappedParent,
		Metadata:     r.MetadataFields.ToMetadata(),
		Description:  r.Description,
	}
}

type UpdateProductRequest struct {
	Name         *string `json:"name" validate:"omitempty,notblank,max=200"`
	MappedParent *string `json:"mappedParent" validate:"omitempty,notblank"`
	MetadataPatch
	Description *string `json:"description" validate:"omitempty,max=100000"`
}

func (r *UpdateProductRequest) Apply(p *Product) {
	applyString(&p.Name, r.Name)
	applyString(&p.MappedParent, r.MappedParent)
	r.MetadataPatch.Apply(&p.Metadata)
	applyString(&p.Description, r.Description)
}

// === RESPONSES ===

// Pagination - блок пагинации в ответе списка
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int64 `json:"totalPages"`
}

// ListResponse - ответ списковых эндпоинтов
type ListResponse struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	StatusCode int                         `json:"statusCode"`
	Error      string                      `json:"error"`
	Message    string                      `json:"message,omitempty"`
	Violations []validation.FieldViolation `json:"violations,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// CountResponse - ответ счетчика
type CountResponse struct {
	Count int64 `json:"count"`
}
