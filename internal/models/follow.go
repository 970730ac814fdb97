package models

// Follow is a directed edge from Follower to Followed.
// A user never follows itself and an edge exists at most once.
type Follow struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	FollowerID uint `gorm:"not null;uniqueIndex:idx_follows_pair;check:chk_follows_not_self,follower_id <> followed_id" json:"follower_id"`
	Follower   User `gorm:"foreignKey:FollowerID;constraint:OnDelete:RESTRICT" json:"-"`
	FollowedID uint `gorm:"not null;uniqueIndex:idx_follows_pair;index" json:"followed_id"`
	Followed   User `gorm:"foreignKey:FollowedID;constraint:OnDelete:RESTRICT" json:"-"`
	Audit
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// FollowCounts summarizes both sides of a user's graph.
type FollowCounts struct {
	FollowingCount int64 `json:"following_count"`
	FollowersCount int64 `json:"followers_count"`
}
