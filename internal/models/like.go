package models

import "time"

// Like records that a user liked one video, tweet or comment.
// The combination of LikedByID and target must be unique.
type Like struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	LikedByID  uint       `gorm:"not null;uniqueIndex:idx_likes_edge" json:"likedById"`
	TargetType TargetKind `gorm:"type:varchar(16);not null;uniqueIndex:idx_likes_edge;index:idx_likes_target" json:"targetType"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_likes_edge;index:idx_likes_target" json:"targetId"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// NewLike builds a like edge for user on target.
func NewLike(userID uint, target Target) *Like {
	return &Like{LikedByID: userID, TargetType: target.Kind, TargetID: target.ID}
}

// Target returns the liked entity.
func (l *Like) Target() Target {
	return Target{Kind: l.TargetType, ID: l.TargetID}
}

// ToggleResult reports the state after a toggle.
type ToggleResult struct {
	Active bool `json:"active"`
}
