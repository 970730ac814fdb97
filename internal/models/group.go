package models

// Permission is a named capability, e.g. "posts.create_comment".
type Permission struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Codename string `gorm:"size:100;uniqueIndex;not null" json:"codename"`
	Name     string `gorm:"size:255;not null" json:"name"`
}

// TableName specifies the table name for GORM
func (Permission) TableName() string {
	return "permissions"
}

// Group bundles permissions granted to its members.
type Group struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:150;uniqueIndex;not null" json:"name"`
	Permissions []Permission `gorm:"many2many:group_permissions;" json:"permissions,omitempty"`
}

// TableName specifies the table name for GORM
func (Group) TableName() string {
	return "groups"
}

// Default groups assigned to every new account.
const (
	GroupUsers     = "Users"
	GroupPosts     = "Posts"
	GroupComments  = "Comments"
	GroupFollowers = "Followers"
)

// DefaultGroups lists the groups joined at signup.
var DefaultGroups = []string{GroupUsers, GroupPosts, GroupComments, GroupFollowers}
