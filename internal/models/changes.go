package models

import "strings"

// PublicationChanges holds the fields of a publication that may be edited.
// Nil pointers mean "leave unchanged".
type PublicationChanges struct {
	Description *string
	Image       *string
}

// Apply copies every differing candidate value onto p and returns the
// names of the fields that changed. An empty result means nothing to save.
func (c PublicationChanges) Apply(p *Publication) []string {
	var changed []string
	if c.Description != nil {
		if v := NormalizeText(*c.Description); v != p.Description {
			p.Description = v
			changed = append(changed, "description")
		}
	}
	if c.Image != nil && *c.Image != p.Image {
		p.Image = *c.Image
		changed = append(changed, "image")
	}
	return changed
}

// UserChanges holds the profile fields an owner may edit.
type UserChanges struct {
	Username    *string
	FirstName   *string
	LastName    *string
	Description *string
	Website     *string
}

// Apply copies every differing candidate value onto u and returns the changed column names.
func (c UserChanges) Apply(u *User) []string {
	var changed []string
	set := func(column string, dst *string, candidate *string, norm func(string) string) {
		if candidate == nil {
			return
		}
		if v := norm(*candidate); v != *dst {
			*dst = v
			changed = append(changed, column)
		}
	}
	set("username", &u.Username, c.Username, func(s string) string { return CleanSpaces(strings.ToLower(s)) })
	set("first_name", &u.FirstName, c.FirstName, CleanSpaces)
	set("last_name", &u.LastName, c.LastName, CleanSpaces)
	set("description", &u.Description, c.Description, CleanSpaces)
	set("website", &u.Website, c.Website, strings.TrimSpace)
	return changed
}
