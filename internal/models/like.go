package models

// Like marks a publication as liked by a user.
// The combination of UserID and PublicationCode must be unique.
type Like struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	PublicationCode string      `gorm:"size:6;not null;uniqueIndex:idx_likes_user_publication" json:"publication"`
	Publication     Publication `gorm:"foreignKey:PublicationCode;references:Code;constraint:OnDelete:RESTRICT" json:"-"`
	UserID          uint        `gorm:"not null;uniqueIndex:idx_likes_user_publication" json:"user_id"`
	User            User        `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	Audit
}

// TableName specifies the table name for GORM
func (Like) TableName() string {
	return "likes"
}

// LikeCount is the response shape for like totals.
type LikeCount struct {
	Count int64 `json:"count"`
}
