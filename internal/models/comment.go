package models

import "unicode/utf8"

// CommentMaxLength caps comment text.
const CommentMaxLength = 250

// Comment is a user's remark on a publication.
type Comment struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	Comment         string      `gorm:"size:250;not null" json:"comment"`
	PublicationCode string      `gorm:"size:6;not null;index" json:"publication"`
	Publication     Publication `gorm:"foreignKey:PublicationCode;references:Code;constraint:OnDelete:RESTRICT" json:"-"`
	UserID          uint        `gorm:"not null;index" json:"user_id"`
	User            User        `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user"`
	Audit
}

// TableName specifies the table name for GORM
func (Comment) TableName() string {
	return "comments"
}

// Normalize capitalizes the text and collapses whitespace.
func (c *Comment) Normalize() {
	c.Comment = NormalizeText(c.Comment)
}

// FieldChecks implements Validatable.
func (c *Comment) FieldChecks() []FieldCheck {
	return []FieldCheck{
		{Field: "comment", Check: func() string {
			n := utf8.RuneCountInString(c.Comment)
			if n == 0 {
				return "This field cannot be blank."
			}
			if n > CommentMaxLength {
				return "Ensure this field has no more than 250 characters."
			}
			return ""
		}},
		{Field: "publication", Check: func() string {
			if c.PublicationCode == "" {
				return "This field cannot be null."
			}
			return ""
		}},
		{Field: "user", Check: func() string {
			if c.UserID == 0 {
				return "This field cannot be null."
			}
			return ""
		}},
	}
}
