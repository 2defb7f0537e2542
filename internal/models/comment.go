package models

import "time"

// Comment is attached to exactly one video or tweet.
type Comment struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	Content    string       `gorm:"type:text;not null" json:"content"`
	OwnerID    uint         `gorm:"not null;index" json:"ownerId"`
	Owner      *UserSummary `gorm:"foreignKey:OwnerID;-:migration" json:"owner,omitempty"`
	TargetType TargetKind   `gorm:"type:varchar(16);not null;index:idx_comments_target" json:"targetType"`
	TargetID   uint         `gorm:"not null;index:idx_comments_target" json:"targetId"`
	LikesCount int64        `gorm:"->;-:migration" json:"likesCount"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// Target returns what the comment is attached to.
func (c *Comment) Target() Target {
	return Target{Kind: c.TargetType, ID: c.TargetID}
}

// CommentPage is one page of comments for a target.
type CommentPage struct {
	Docs       []Comment `json:"docs"`
	TotalDocs  int64     `json:"totalDocs"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}
