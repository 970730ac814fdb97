package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkedEntity struct {
	checks []FieldCheck
}

func (e checkedEntity) FieldChecks() []FieldCheck { return e.checks }

func failing(field string) FieldCheck {
	return FieldCheck{Field: field, Check: func() string { return field + " is invalid" }}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, CodeValidation, appErr.Code)
	return appErr.Fields
}

func TestValidate_IncludeAndExcludeIsConfigError(t *testing.T) {
	err := Validate(checkedEntity{}, ValidateOptions{Include: []string{"a"}, Exclude: []string{"b"}})
	require.Error(t, err)
	assert.Equal(t, CodeConfig, ErrorCode(err))
}

func TestValidate_AuditFieldsAlwaysSkipped(t *testing.T) {
	e := checkedEntity{checks: []FieldCheck{failing(FieldCreatedBy), failing(FieldUpdatedAt)}}

	assert.NoError(t, Validate(e, ValidateOptions{}))
	assert.NoError(t, Validate(e, ValidateOptions{Include: []string{FieldCreatedBy}}))
}

func TestValidate_IncludeAndExcludeNarrowing(t *testing.T) {
	e := checkedEntity{checks: []FieldCheck{failing("image"), failing("description")}}

	fields := fieldsOf(t, Validate(e, ValidateOptions{}))
	assert.Len(t, fields, 2)

	fields = fieldsOf(t, Validate(e, ValidateOptions{Include: []string{"image"}}))
	assert.Equal(t, map[string]string{"image": "image is invalid"}, fields)

	fields = fieldsOf(t, Validate(e, ValidateOptions{Exclude: []string{"image"}}))
	assert.Equal(t, map[string]string{"description": "description is invalid"}, fields)
}

func TestPublicationFieldChecks(t *testing.T) {
	p := &Publication{Code: "abc12", Image: "", Description: strings.Repeat("x", 101)}
	fields := fieldsOf(t, Validate(p, ValidateOptions{}))

	assert.Contains(t, fields, "code")
	assert.Contains(t, fields, "image")
	assert.Contains(t, fields, "description")
	assert.Contains(t, fields, "user")

	ok := &Publication{Code: "Ab3dE9", Image: "http://x/y.webp", UserID: 1}
	assert.NoError(t, Validate(ok, ValidateOptions{}))
}

func TestCommentFieldChecks(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"empty", "", true},
		{"single char", "a", false},
		{"max", strings.Repeat("a", 250), false},
		{"too long", strings.Repeat("a", 251), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Comment{Comment: tt.text, PublicationCode: "abc123", UserID: 1}
			err := Validate(c, ValidateOptions{Include: []string{"comment"}})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidPublicationCode(t *testing.T) {
	assert.True(t, ValidPublicationCode("aZ09xY"))
	assert.False(t, ValidPublicationCode("aZ09x"))
	assert.False(t, ValidPublicationCode("aZ09xY1"))
	assert.False(t, ValidPublicationCode("aZ-9xY"))
}
