// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"tubbit/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the plain-text password of every seeded account.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	// #nosec G404: acceptable for seeding
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(seed)), nextID: 1000}
}

func (f *Factory) backdate() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

func (f *Factory) persist(value interface{}, setID func(uint)) error {
	if f.opts.DryRun {
		f.nextID++
		setID(f.nextID)
		return nil
	}
	return f.db.Omit(clause.Associations).Create(value).Error
}

func (f *Factory) passwordHash() string {
	if f.opts.SkipBcrypt {
		return DefaultPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return DefaultPassword
	}
	return string(hashed)
}

// CreateUser constructs and persists a sample user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	username := strings.ToLower(fmt.Sprintf("%s_%s%d", first, last, gofakeit.Number(10, 9999)))
	if len(username) > 30 {
		username = username[:30]
	}
	user := &models.User{
		Username:   username,
		Email:      username + "@example.com",
		Fullname:   first + " " + last,
		Password:   f.passwordHash(),
		Avatar:     fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		CoverImage: fmt.Sprintf("https://picsum.photos/seed/%s/1500/500", gofakeit.UUID()),
		AuthType:   models.AuthTypeEmailPassword,
		CreatedAt:  f.backdate(),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.persist(user, func(id uint) { user.ID = id }); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildVideo constructs a video for owner without persisting it.
func (f *Factory) BuildVideo(owner *models.User, overrides ...func(*models.Video)) *models.Video {
	key := gofakeit.UUID()
	video := &models.Video{
		VideoFile:   fmt.Sprintf("https://cdn.tubbit.dev/videos/%s.mp4", key),
		Thumbnail:   fmt.Sprintf("https://picsum.photos/seed/%s/1280/720", key),
		Title:       strings.TrimSuffix(gofakeit.Sentence(f.rng.Intn(5)+3), "."),
		Description: gofakeit.Paragraph(1, 3, 12, " "),
		Duration:    float64(f.rng.Intn(1800)+30) + f.rng.Float64(),
		Views:       int64(f.rng.Intn(50000)),
		IsPublished: f.rng.Float32() < 0.85,
		OwnerID:     owner.ID,
		CreatedAt:   f.backdate(),
	}
	for _, override := range overrides {
		override(video)
	}
	return video
}

// CreateVideo builds and persists a video for owner.
func (f *Factory) CreateVideo(owner *models.User, overrides ...func(*models.Video)) (*models.Video, error) {
	video := f.BuildVideo(owner, overrides...)
	if err := f.persist(video, func(id uint) { video.ID = id }); err != nil {
		return nil, err
	}
	return video, nil
}

// CreateTweet persists a sample tweet for owner.
func (f *Factory) CreateTweet(owner *models.User, overrides ...func(*models.Tweet)) (*models.Tweet, error) {
	content := gofakeit.Sentence(f.rng.Intn(20) + 4)
	if len(content) > models.MaxTweetLength {
		content = content[:models.MaxTweetLength]
	}
	tweet := &models.Tweet{
		Content:   content,
		Image:     fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID()),
		IsPublic:  f.rng.Float32() < 0.9,
		OwnerID:   owner.ID,
		CreatedAt: f.backdate(),
	}
	for _, override := range overrides {
		override(tweet)
	}
	if err := f.persist(tweet, func(id uint) { tweet.ID = id }); err != nil {
		return nil, err
	}
	return tweet, nil
}

// CreateComment persists a comment by author on target.
func (f *Factory) CreateComment(author *models.User, target models.Target, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Content:    gofakeit.Sentence(f.rng.Intn(12) + 3),
		OwnerID:    author.ID,
		TargetType: target.Kind,
		TargetID:   target.ID,
		CreatedAt:  f.backdate(),
	}
	for _, override := range overrides {
		override(comment)
	}
	if err := f.persist(comment, func(id uint) { comment.ID = id }); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from user on target. Duplicates are ignored.
func (f *Factory) CreateLike(user *models.User, target models.Target) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(models.NewLike(user.ID, target)).Error
}

// CreateSubscription persists subscriber -> channel. Self-subscriptions are skipped.
func (f *Factory) CreateSubscription(subscriber, channel *models.User) error {
	if f.opts.DryRun || subscriber.ID == channel.ID {
		return nil
	}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&models.Subscription{
		SubscriberID: subscriber.ID,
		ChannelID:    channel.ID,
	}).Error
}

// CreatePlaylist persists a playlist for owner holding videos in order.
func (f *Factory) CreatePlaylist(owner *models.User, videos []*models.Video) (*models.Playlist, error) {
	playlist := &models.Playlist{
		Name:        strings.TrimSuffix(gofakeit.Sentence(f.rng.Intn(3)+2), "."),
		Description: gofakeit.Sentence(10),
		IsPublished: f.rng.Float32() < 0.7,
		OwnerID:     owner.ID,
	}
	if err := f.persist(playlist, func(id uint) { playlist.ID = id }); err != nil {
		return nil, err
	}
	if f.opts.DryRun {
		return playlist, nil
	}
	for i, v := range videos {
		entry := &models.PlaylistVideo{PlaylistID: playlist.ID, VideoID: v.ID, Position: i, AddedAt: time.Now()}
		if err := f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(entry).Error; err != nil {
			return nil, err
		}
	}
	return playlist, nil
}

// RecordWatch adds video to user's watch history at watchedAt.
func (f *Factory) RecordWatch(user *models.User, video *models.Video, watchedAt time.Time) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"watched_at"}),
	}).Omit(clause.Associations).Create(&models.WatchHistoryEntry{
		UserID:    user.ID,
		VideoID:   video.ID,
		WatchedAt: watchedAt,
	}).Error
}

func logDryRun(format string, args ...interface{}) {
	log.Printf("[dry-run] "+format, args...)
}
