package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestPublicationChanges_NoOpWhenEqual(t *testing.T) {
	p := &Publication{Description: "New"}
	changed := PublicationChanges{Description: strPtr("new")}.Apply(p)

	assert.Empty(t, changed)
	assert.Equal(t, "New", p.Description)
}

func TestPublicationChanges_AppliesDifferences(t *testing.T) {
	p := &Publication{Description: "Old", Image: "http://a/1.webp"}
	changed := PublicationChanges{
		Description: strPtr("brand   NEW caption "),
		Image:       strPtr("http://a/2.webp"),
	}.Apply(p)

	assert.Equal(t, []string{"description", "image"}, changed)
	assert.Equal(t, "Brand new caption", p.Description)
	assert.Equal(t, "http://a/2.webp", p.Image)
}

func TestUserChanges_Apply(t *testing.T) {
	u := &User{Username: "ana", FirstName: "Ana", Website: ""}
	changed := UserChanges{
		Username:  strPtr(" ANA "),
		FirstName: strPtr("Ana  Maria"),
		Website:   strPtr("https://ana.dev"),
	}.Apply(u)

	assert.Equal(t, []string{"first_name", "website"}, changed)
	assert.Equal(t, "Ana Maria", u.FirstName)
	assert.Equal(t, "ana", u.Username)
}
