// Package models contains data structures for the application's domain models.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"instaclone/internal/validation"
)

// User represents an Instaclone account.
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email       string     `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"size:128;not null" json:"-"`
	FirstName   string     `gorm:"size:150" json:"first_name"`
	LastName    string     `gorm:"size:150" json:"last_name"`
	Description string     `gorm:"type:text" json:"description"`
	Website     string     `gorm:"size:255" json:"website"`
	Avatar      string     `gorm:"size:255" json:"avatar"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	IsStaff     bool       `gorm:"not null" json:"is_staff"`
	IsSuperuser bool       `gorm:"not null" json:"is_superuser"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	DateJoined  time.Time  `gorm:"not null" json:"date_joined"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Groups []Group `gorm:"many2many:user_groups;" json:"-"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// Normalize applies the canonical casing and spacing rules to profile fields.
func (u *User) Normalize() {
	u.Username = CleanSpaces(strings.ToLower(u.Username))
	u.Email = strings.TrimSpace(u.Email)
	u.FirstName = CleanSpaces(u.FirstName)
	u.LastName = CleanSpaces(u.LastName)
	u.Description = CleanSpaces(u.Description)
	u.Website = strings.TrimSpace(u.Website)
}

// FieldChecks implements Validatable.
func (u *User) FieldChecks() []FieldCheck {
	return []FieldCheck{
		{Field: "username", Check: func() string { return errString(validation.ValidateUsername(u.Username)) }},
		{Field: "email", Check: func() string { return errString(validation.ValidateEmail(u.Email)) }},
		{Field: "first_name", Check: func() string { return maxRunes(u.FirstName, 100) }},
		{Field: "last_name", Check: func() string { return maxRunes(u.LastName, 100) }},
		{Field: "website", Check: func() string { return optionalURL(u.Website) }},
		{Field: "avatar", Check: func() string { return optionalURL(u.Avatar) }},
	}
}

// UserSummary is the compact shape returned by search and social graph listings.
type UserSummary struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

// Summary returns the compact representation of u.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Avatar:    u.Avatar,
	}
}

// Summaries converts a slice of users.
func Summaries(users []User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func maxRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) > limit {
		return fmt.Sprintf("Ensure this field has no more than %d characters.", limit)
	}
	return ""
}

func optionalURL(s string) string {
	if s == "" {
		return ""
	}
	return errString(validation.ValidateURL(s))
}
