package models

import "fmt"

// Action is a verb in a permission codename.
type Action string

const (
	ActionCreate Action = "create"
	ActionList   Action = "list"
	ActionView   Action = "view"
	ActionChange Action = "change"
)

// Resource is the object kind a permission applies to.
type Resource string

const (
	ResourceUser        Resource = "user"
	ResourceFollow      Resource = "follow"
	ResourcePublication Resource = "publication"
	ResourceComment     Resource = "comment"
	ResourceLike        Resource = "like"
)

// Actions lists every verb in declaration order.
var Actions = []Action{ActionCreate, ActionList, ActionView, ActionChange}

// app returns the label prefixing the codename.
func (r Resource) app() string {
	switch r {
	case ResourceUser, ResourceFollow:
		return "users"
	default:
		return "posts"
	}
}

// Codename builds "<app>.<action>_<resource>".
func Codename(action Action, resource Resource) string {
	return fmt.Sprintf("%s.%s_%s", resource.app(), action, resource)
}

// DefaultGroupPermissions maps each default group to the codenames it grants.
func DefaultGroupPermissions() map[string][]string {
	all := func(r Resource) []string {
		out := make([]string, 0, len(Actions))
		for _, a := range Actions {
			out = append(out, Codename(a, r))
		}
		return out
	}
	return map[string][]string{
		GroupUsers: {
			Codename(ActionList, ResourceUser),
			Codename(ActionView, ResourceUser),
			Codename(ActionChange, ResourceUser),
		},
		GroupPosts:     append(all(ResourcePublication), all(ResourceLike)...),
		GroupComments:  all(ResourceComment),
		GroupFollowers: all(ResourceFollow),
	}
}

// AllPermissions returns every codename with a human readable name.
func AllPermissions() []Permission {
	resources := []Resource{ResourceUser, ResourceFollow, ResourcePublication, ResourceComment, ResourceLike}
	out := make([]Permission, 0, len(resources)*len(Actions))
	for _, r := range resources {
		for _, a := range Actions {
			out = append(out, Permission{
				Codename: Codename(a, r),
				Name:     fmt.Sprintf("%s %s", Capitalize(string(a)), r),
			})
		}
	}
	return out
}
