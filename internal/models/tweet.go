package models

import "time"

// MaxTweetLength bounds tweet content after sanitizing.
const MaxTweetLength = 280

// Tweet is a short post with a required image.
type Tweet struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Content       string       `gorm:"size:1024;not null" json:"content"`
	Image         string       `gorm:"not null" json:"image"`
	ImagePublicID string       `json:"-"`
	IsPublic      bool         `gorm:"not null" json:"isPublic"`
	OwnerID       uint         `gorm:"not null;index" json:"ownerId"`
	Owner         *UserSummary `gorm:"foreignKey:OwnerID;-:migration" json:"owner,omitempty"`
	LikesCount    int64        `gorm:"->;-:migration" json:"likesCount"`
	CreatedAt     time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// Target returns the like/comment reference for the tweet.
func (t *Tweet) Target() Target {
	return TweetTarget(t.ID)
}

// TweetPage is one page of a user's tweets.
type TweetPage struct {
	Docs       []Tweet `json:"docs"`
	TotalDocs  int64   `json:"totalDocs"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"totalPages"`
}
