package repository

import (
	"fmt"
	"testing"
	"time"

	"tubbit/internal/database"
	"tubbit/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Fullname: "User " + username,
		Password: "hashed",
		Avatar:   "https://cdn.example.com/avatars/" + username + ".webp",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

type videoOpts struct {
	description string
	views       int64
	unpublished bool
	createdAt   time.Time
}

func seedVideo(t *testing.T, db *gorm.DB, ownerID uint, title string, opts videoOpts) *models.Video {
	t.Helper()
	if opts.description == "" {
		opts.description = "about " + title
	}
	video := &models.Video{
		VideoFile:   fmt.Sprintf("https://cdn.example.com/videos/%s.mp4", title),
		Thumbnail:   fmt.Sprintf("https://cdn.example.com/thumbs/%s.webp", title),
		Title:       title,
		Description: opts.description,
		Duration:    42.5,
		Views:       opts.views,
		IsPublished: !opts.unpublished,
		OwnerID:     ownerID,
		CreatedAt:   opts.createdAt,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(video).Error)
	return video
}

func seedTweet(t *testing.T, db *gorm.DB, ownerID uint, content string, public bool) *models.Tweet {
	t.Helper()
	tweet := &models.Tweet{
		Content:  content,
		Image:    "https://cdn.example.com/tweets/image.webp",
		IsPublic: public,
		OwnerID:  ownerID,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(tweet).Error)
	return tweet
}

func seedComment(t *testing.T, db *gorm.DB, ownerID uint, target models.Target, content string) *models.Comment {
	t.Helper()
	comment := &models.Comment{Content: content, OwnerID: ownerID, TargetType: target.Kind, TargetID: target.ID}
	require.NoError(t, db.Omit(clause.Associations).Create(comment).Error)
	return comment
}

func seedLike(t *testing.T, db *gorm.DB, userID uint, target models.Target) {
	t.Helper()
	require.NoError(t, db.Create(models.NewLike(userID, target)).Error)
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}
