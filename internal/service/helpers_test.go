package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"tubbit/internal/database"
	"tubbit/internal/models"
	"tubbit/internal/notifications"
	"tubbit/internal/storage"
	"tubbit/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func init() {
	passwordCost = bcrypt.MinCost
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Fullname: "User " + username,
		Password: string(hashed),
		AuthType: models.AuthTypeEmailPassword,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedVideo(t *testing.T, db *gorm.DB, ownerID uint, title string, published bool) *models.Video {
	t.Helper()
	video := &models.Video{
		VideoFile:         fmt.Sprintf("https://cdn.test/videos/%s.mp4", title),
		VideoFilePublicID: "videos/" + title + ".mp4",
		Thumbnail:         fmt.Sprintf("https://cdn.test/thumbnails/%s.webp", title),
		ThumbnailPublicID: "thumbnails/" + title + ".webp",
		Title:             title,
		Description:       "about " + title,
		Duration:          30,
		IsPublished:       published,
		OwnerID:           ownerID,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(video).Error)
	return video
}

func seedTweet(t *testing.T, db *gorm.DB, ownerID uint, content string) *models.Tweet {
	t.Helper()
	tweet := &models.Tweet{Content: content, IsPublic: true, OwnerID: ownerID}
	require.NoError(t, db.Omit(clause.Associations).Create(tweet).Error)
	return tweet
}

func newMemoryUploader(t *testing.T) (*storage.Uploader, *testutil.MemoryStore) {
	t.Helper()
	store := testutil.NewMemoryStore()
	return testutil.NewUploader(store, 12.5, t.TempDir()), store
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

// recordingNotifier captures delivered events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []deliveredEvent
}

type deliveredEvent struct {
	RecipientID uint
	Event       notifications.Event
}

func (n *recordingNotifier) Notify(_ context.Context, recipientID uint, ev notifications.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, deliveredEvent{RecipientID: recipientID, Event: ev})
}

func (n *recordingNotifier) Events() []deliveredEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]deliveredEvent(nil), n.events...)
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeUnauthorized)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func assertConflictError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeConflict)
}

func TestPageParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 10},
		{-3, 5, 1, 5},
		{2, 500, 2, 100},
		{4, 25, 4, 25},
	}
	for _, tc := range tests {
		page, limit := pageParams(tc.page, tc.limit)
		assert.Equal(t, tc.wantPage, page)
		assert.Equal(t, tc.wantLimit, limit)
	}

	assert.Equal(t, 0, totalPages(0, 10))
	assert.Equal(t, 1, totalPages(10, 10))
	assert.Equal(t, 2, totalPages(11, 10))
}

func TestRequireOwner(t *testing.T) {
	t.Parallel()

	assert.NoError(t, requireOwner(7, 7, "edit"))
	assertUnauthorizedError(t, requireOwner(7, 8, "edit"))
}

func TestUploadError(t *testing.T) {
	t.Parallel()

	assertValidationError(t, uploadError("Avatar", storage.ErrEmpty))
	assertValidationError(t, uploadError("Avatar", fmt.Errorf("%w: bad", storage.ErrUnsupported)))
	assertValidationError(t, uploadError("Video", storage.ErrTooLarge))
	assertAppErrorCode(t, uploadError("Video", errors.New("s3 down")), models.CodeInternal)
}

func videoIDs(videos []models.Video) []uint {
	ids := make([]uint, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
	}
	return ids
}
