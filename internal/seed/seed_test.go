package seed

import (
	"testing"

	"tubbit/internal/database"
	"tubbit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSeedDB(t *testing.T) *gorm.DB {
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

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestSeed_BuildsConnectedGraph(t *testing.T) {
	db := newSeedDB(t)
	opts := Options{NumUsers: 5, VideosPerUser: 2, TweetsPerUser: 2, CommentsPerVideo: 2, SkipBcrypt: true, RandSeed: 42}

	sum, err := Seed(db, opts)
	require.NoError(t, err)

	assert.Equal(t, 5, sum.Users)
	assert.Equal(t, 10, sum.Videos)
	assert.Equal(t, 10, sum.Tweets)
	assert.EqualValues(t, sum.Users, count(t, db, &models.User{}))
	assert.EqualValues(t, sum.Videos, count(t, db, &models.Video{}))
	assert.EqualValues(t, sum.Comments, count(t, db, &models.Comment{}))
	assert.EqualValues(t, sum.Playlists, count(t, db, &models.Playlist{}))
	assert.EqualValues(t, sum.HistoryItems, count(t, db, &models.WatchHistoryEntry{}))

	var selfSubs int64
	require.NoError(t, db.Model(&models.Subscription{}).Where("subscriber_id = channel_id").Count(&selfSubs).Error)
	assert.Zero(t, selfSubs)

	// comments only land on published videos
	var orphaned int64
	require.NoError(t, db.Model(&models.Comment{}).
		Joins("JOIN videos ON videos.id = comments.target_id").
		Where("comments.target_type = ? AND videos.is_published = ?", models.TargetVideo, false).
		Count(&orphaned).Error)
	assert.Zero(t, orphaned)
}

func TestSeed_CleanRemovesPreviousRun(t *testing.T) {
	db := newSeedDB(t)
	opts := Options{NumUsers: 3, VideosPerUser: 1, SkipBcrypt: true, RandSeed: 7}

	_, err := Seed(db, opts)
	require.NoError(t, err)

	opts.ShouldClean = true
	opts.RandSeed = 8
	_, err = Seed(db, opts)
	require.NoError(t, err)

	assert.EqualValues(t, 3, count(t, db, &models.User{}))
	assert.EqualValues(t, 3, count(t, db, &models.Video{}))
}

func TestFactory_DryRunAssignsSyntheticIDs(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, SkipBcrypt: true, MaxDays: 10})

	u, err := f.CreateUser()
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.LessOrEqual(t, len(u.Username), 30)
	assert.Equal(t, DefaultPassword, u.Password)

	v, err := f.CreateVideo(u)
	require.NoError(t, err)
	assert.Greater(t, v.ID, u.ID)
	assert.Equal(t, u.ID, v.OwnerID)
	assert.Positive(t, v.Duration)

	tw, err := f.CreateTweet(u)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(tw.Content), models.MaxTweetLength)
}

func TestSeed_DryRunWritesNothing(t *testing.T) {
	db := newSeedDB(t)
	sum, err := Seed(db, Options{NumUsers: 2, VideosPerUser: 1, TweetsPerUser: 1, DryRun: true, SkipBcrypt: true})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Users)
	assert.Zero(t, count(t, db, &models.User{}))
}
