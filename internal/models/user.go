// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// AuthType records how an account authenticates.
type AuthType string

const (
	AuthTypeEmailPassword AuthType = "email_password"
	AuthTypeGoogle        AuthType = "google"
	AuthTypeGithub        AuthType = "github"
)

// User represents an account and the channel it owns.
type User struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Username           string    `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email              string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Fullname           string    `gorm:"size:120;not null" json:"fullname"`
	Password           string    `gorm:"not null" json:"-"`
	Avatar             string    `json:"avatar"`
	AvatarPublicID     string    `json:"-"`
	CoverImage         string    `json:"coverImage"`
	CoverImagePublicID string    `json:"-"`
	AuthType           AuthType  `gorm:"type:varchar(20);not null;default:'email_password'" json:"authType"`
	RefreshToken       string    `gorm:"size:512" json:"-"`
	IsAdmin            bool      `gorm:"not null;default:false" json:"isAdmin"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// BeforeSave normalizes identity fields so lookups can compare exactly.
func (u *User) BeforeSave(_ *gorm.DB) error {
	u.Username = NormalizeUsername(u.Username)
	u.Email = NormalizeEmail(u.Email)
	u.Fullname = strings.TrimSpace(u.Fullname)
	return nil
}

// Summary projects the public owner fields.
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Username: u.Username, Fullname: u.Fullname, Avatar: u.Avatar}
}

// NormalizeUsername lower-cases and trims a username.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// UserSummary is the owner projection joined onto videos, tweets, comments
// and subscriptions. It never carries credentials.
type UserSummary struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Avatar   string `json:"avatar"`
}

// TableName maps the projection onto the users table.
func (UserSummary) TableName() string {
	return "users"
}

// ChannelProfile is a user's public channel with live relationship counts.
type ChannelProfile struct {
	ID                uint      `json:"id"`
	Username          string    `json:"username"`
	Fullname          string    `json:"fullname"`
	Email             string    `json:"email"`
	Avatar            string    `json:"avatar"`
	CoverImage        string    `json:"coverImage"`
	SubscribersCount  int64     `json:"subscribersCount"`
	SubscribedToCount int64     `json:"channelsSubscribedToCount"`
	IsSubscribed      bool      `json:"isSubscribed"`
	CreatedAt         time.Time `json:"createdAt"`
}
