package validation

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// FieldViolation - нарушение правила валидации для одного поля
// Field - имя поля в JSON (например links[0].url)
type FieldViolation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Result - результат валидации, пустой список нарушений означает валидный ввод
type Result struct {
	Violations []FieldViolation
}

func (r Result) Valid() bool {
	return len(r.Violations) == 0
}

// Error собирает нарушения в одну строку "field: message; ..."
func (r Result) Error() string {
	parts := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// В нарушениях используем JSON имена полей, а не имена Go
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// notblank: строка не пустая после обрезки пробелов
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Validate проверяет структуру по тегам validate
// Ошибка не валидационного характера (например nil вместо структуры) возвращается одним нарушением
func Validate(s interface{}) Result {
	err := validate.Struct(s)
	if err == nil {
		return Result{}
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return Result{Violations: []FieldViolation{{Field: "", Rule: "invalid", Message: err.Error()}}}
	}

	violations := make([]FieldViolation, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		violations = append(violations, FieldViolation{
			Field:   fieldPath(fe),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return Result{Violations: violations}
}

// fieldPath убирает из пространства имен корневую структуру и встроенные структуры
// (у них нет JSON имени, остается имя типа с заглавной буквы):
// CreateCategoryRequest.MetadataFields.uniqueId -> uniqueId
func fieldPath(fe validator.FieldError) string {
	segments := strings.Split(fe.Namespace(), ".")
	if len(segments) > 0 {
		segments = segments[1:]
	}
	kept := segments[:0]
	for _, s := range segments {
		if s != "" && unicode.IsUpper([]rune(s)[0]) {
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return fe.Field()
	}
	return strings.Join(kept, ".")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	default:
		return "failed on " + fe.Tag()
	}
}
