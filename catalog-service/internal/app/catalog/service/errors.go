package service

import (
	"errors"
	"fmt"
)

// Ошибки бизнес-логики для обработки в handlers
var (
	ErrCategoryNotFound          = errors.New("category not found")
	ErrSubcategoryNotFound       = errors.New("subcategory not found")
	ErrProductNotFound           = errors.New("product not found")
	ErrParentCategoryNotFound    = errors.New("parent category not found")
	ErrParentSubcategoryNotFound = errors.New("parent subcategory not found")
	ErrCategoryExists            = errors.New("category with this name already exists")
	ErrProductExists             = errors.New("product with this name already exists in the subcategory")
	ErrFetchFailed               = errors.New("failed to fetch")
)

// fetchFailed - ошибка чтения списка из хранилища, без повторов
func fetchFailed(what string, err error) error {
	return fmt.Errorf("%w %s: %v", ErrFetchFailed, what, err)
}
