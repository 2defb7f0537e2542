package models

import "time"

// Playlist is an ordered, owner-curated list of videos.
type Playlist struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:120;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	IsPublished bool         `gorm:"not null" json:"isPublished"`
	OwnerID     uint         `gorm:"not null;index" json:"ownerId"`
	Owner       *UserSummary `gorm:"foreignKey:OwnerID;-:migration" json:"owner,omitempty"`
	Videos      []Video      `gorm:"-" json:"videos,omitempty"`
	// VideosCount and TotalViews are computed at query time
	VideosCount int64     `gorm:"->;-:migration" json:"videosCount"`
	TotalViews  int64     `gorm:"->;-:migration" json:"totalViews"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistVideo places a video in a playlist. A video appears at most once.
type PlaylistVideo struct {
	PlaylistID uint      `gorm:"primaryKey;autoIncrement:false" json:"playlistId"`
	VideoID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"videoId"`
	Position   int       `gorm:"not null" json:"position"`
	AddedAt    time.Time `gorm:"not null" json:"addedAt"`
}
