package models

import (
	"regexp"
	"unicode/utf8"
)

// PublicationCodeLength is the length of a publication's public code.
const PublicationCodeLength = 6

// DescriptionMaxLength caps a publication caption.
const DescriptionMaxLength = 100

var publicationCodePattern = regexp.MustCompile(`^[0-9A-Za-z]{6}$`)

// ValidPublicationCode reports whether code has the canonical shape.
func ValidPublicationCode(code string) bool {
	return publicationCodePattern.MatchString(code)
}

// Publication is an image post identified by its short code.
type Publication struct {
	Code        string `gorm:"primaryKey;size:6" json:"code"`
	Image       string `gorm:"size:200;not null" json:"image"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	User        User   `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user"`
	Audit
}

// TableName specifies the table name for GORM
func (Publication) TableName() string {
	return "publications"
}

// Normalize capitalizes the caption and collapses whitespace.
func (p *Publication) Normalize() {
	p.Description = NormalizeText(p.Description)
}

// FieldChecks implements Validatable.
func (p *Publication) FieldChecks() []FieldCheck {
	return []FieldCheck{
		{Field: "code", Check: func() string {
			if !ValidPublicationCode(p.Code) {
				return "Invalid code."
			}
			return ""
		}},
		{Field: "image", Check: func() string {
			if p.Image == "" {
				return "This field cannot be blank."
			}
			return ""
		}},
		{Field: "description", Check: func() string {
			if utf8.RuneCountInString(p.Description) > DescriptionMaxLength {
				return "Ensure this field has no more than 100 characters."
			}
			return ""
		}},
		{Field: "user", Check: func() string {
			if p.UserID == 0 {
				return "This field cannot be null."
			}
			return ""
		}},
	}
}
