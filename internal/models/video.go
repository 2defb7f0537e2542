package models

import "time"

// Video is an uploaded video and its playback metadata.
type Video struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	VideoFile         string       `gorm:"not null" json:"videoFile"`
	VideoFilePublicID string       `json:"-"`
	Thumbnail         string       `gorm:"not null" json:"thumbnail"`
	ThumbnailPublicID string       `json:"-"`
	Title             string       `gorm:"size:200;not null" json:"title"`
	Description       string       `gorm:"type:text;not null" json:"description"`
	Duration          float64      `gorm:"not null" json:"duration"`
	Views             int64        `gorm:"not null;default:0" json:"views"`
	IsPublished       bool         `gorm:"not null;index" json:"isPublished"`
	OwnerID           uint         `gorm:"not null;index" json:"ownerId"`
	Owner             *UserSummary `gorm:"foreignKey:OwnerID;-:migration" json:"owner,omitempty"`
	// LikesCount is computed at query time
	LikesCount int64     `gorm:"->;-:migration" json:"likesCount"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Target returns the like/comment reference for the video.
func (v *Video) Target() Target {
	return VideoTarget(v.ID)
}

// VideoSortField is a whitelisted search sort key.
type VideoSortField string

const (
	SortByViews     VideoSortField = "views"
	SortByCreatedAt VideoSortField = "createdAt"
	SortByLikes     VideoSortField = "likes"
)

// Column maps the sort key onto the SQL expression it orders by.
func (f VideoSortField) Column() (string, bool) {
	switch f {
	case SortByViews:
		return "videos.views", true
	case SortByCreatedAt:
		return "videos.created_at", true
	case SortByLikes:
		return "likes_count", true
	}
	return "", false
}

// VideoPage is one page of search results plus pagination metadata.
type VideoPage struct {
	Docs        []Video `json:"docs"`
	TotalDocs   int64   `json:"totalDocs"`
	Limit       int     `json:"limit"`
	Page        int     `json:"page"`
	TotalPages  int     `json:"totalPages"`
	HasPrevPage bool    `json:"hasPrevPage"`
	HasNextPage bool    `json:"hasNextPage"`
	PrevPage    *int    `json:"prevPage"`
	NextPage    *int    `json:"nextPage"`
	Related     bool    `json:"related,omitempty"`
}

// NewVideoPage fills the pagination metadata for docs found at page/limit.
func NewVideoPage(docs []Video, total int64, page, limit int) *VideoPage {
	if docs == nil {
		docs = []Video{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	p := &VideoPage{
		Docs:        docs,
		TotalDocs:   total,
		Limit:       limit,
		Page:        page,
		TotalPages:  totalPages,
		HasPrevPage: page > 1,
		HasNextPage: page < totalPages,
	}
	if p.HasPrevPage {
		prev := page - 1
		p.PrevPage = &prev
	}
	if p.HasNextPage {
		next := page + 1
		p.NextPage = &next
	}
	return p
}
