package model

import "time"

// Vote records one user's like or dislike of one name. The composite unique
// index keeps a single row per (user, name).
type Vote struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_votes_user_name"`
	NameID    uint      `json:"name_id" gorm:"not null;uniqueIndex:idx_votes_user_name;index"`
	Liked     bool      `json:"vote" gorm:"column:vote;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Name *Name `json:"name,omitempty" gorm:"foreignKey:NameID;constraint:OnDelete:CASCADE"`
}

// VoteStats aggregates the votes cast on one name.
type VoteStats struct {
	NameID         uint    `json:"name_id"`
	Name           string  `json:"name"`
	TotalVotes     int64   `json:"total_votes"`
	Likes          int64   `json:"likes"`
	Dislikes       int64   `json:"dislikes"`
	LikePercentage float64 `json:"like_percentage"`
}

// Comparison partitions two users' liked names.
type Comparison struct {
	Both  []Name `json:"both"`
	OnlyA []Name `json:"only_a"`
	OnlyB []Name `json:"only_b"`
}
