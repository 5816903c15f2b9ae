package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type linkInput struct {
	Text string `json:"text" validate:"required"`
	URL  string `json:"url" validate:"required"`
}

type SEOInput struct {
	MetaTitle string `json:"metaTitle" validate:"omitempty,max=5"`
}

type categoryInput struct {
	Name string `json:"name" validate:"required,notblank,max=10"`
	SEOInput
	Links []linkInput `json:"links" validate:"omitempty,dive"`
}

type patchInput struct {
	Name *string `json:"name" validate:"omitempty,notblank"`
}

func TestValidate_Valid(t *testing.T) {
	res := Validate(categoryInput{Name: "Textiles", Links: []linkInput{{Text: "a", URL: "b"}}})

	assert.True(t, res.Valid())
	assert.Empty(t, res.Violations)
}

func TestValidate_MissingName(t *testing.T) {
	res := Validate(categoryInput{})

	require.False(t, res.Valid())
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "name", res.Violations[0].Field)
	assert.Equal(t, "required", res.Violations[0].Rule)
	assert.Equal(t, "is required", res.Violations[0].Message)
}

func TestValidate_BlankName(t *testing.T) {
	res := Validate(categoryInput{Name: "   "})

	require.Len(t, res.Violations, 1)
	assert.Equal(t, "notblank", res.Violations[0].Rule)
}

func TestValidate_TooLong(t *testing.T) {
	res := Validate(categoryInput{Name: strings.Repeat("x", 11)})

	require.Len(t, res.Violations, 1)
	assert.Equal(t, "max", res.Violations[0].Rule)
	assert.Equal(t, "must be at most 10 characters", res.Violations[0].Message)
}

func TestValidate_NestedPathUsesJSONNames(t *testing.T) {
	res := Validate(categoryInput{Name: "ok", Links: []linkInput{{Text: "a"}}})

	require.Len(t, res.Violations, 1)
	assert.Equal(t, "links[0].url", res.Violations[0].Field)
}

func TestValidate_EmbeddedStructFieldIsFlattened(t *testing.T) {
	res := Validate(categoryInput{Name: "ok", SEOInput: SEOInput{MetaTitle: "too long title"}})

	require.Len(t, res.Violations, 1)
	assert.Equal(t, "metaTitle", res.Violations[0].Field)
}

func TestValidate_PatchPointers(t *testing.T) {
	assert.True(t, Validate(patchInput{}).Valid())

	blank := " "
	res := Validate(patchInput{Name: &blank})
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "name", res.Violations[0].Field)
}

func TestValidate_NotAStruct(t *testing.T) {
	res := Validate("plain string")

	require.False(t, res.Valid())
	assert.Equal(t, "invalid", res.Violations[0].Rule)
}

func TestResult_Error(t *testing.T) {
	res := Result{Violations: []FieldViolation{
		{Field: "name", Message: "is required"},
		{Field: "mappedParent", Message: "must not be blank"},
	}}

	assert.Equal(t, "name: is required; mappedParent: must not be blank", res.Error())
}
