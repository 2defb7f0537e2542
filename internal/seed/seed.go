package seed

import (
	"fmt"
	"log"
	"time"

	"tubbit/internal/database"
	"tubbit/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers         int
	VideosPerUser    int
	TweetsPerUser    int
	CommentsPerVideo int
	// MaxDays bounds how far back generated timestamps reach.
	MaxDays     int
	ShouldClean bool
	SkipBcrypt  bool
	DryRun      bool
	// RandSeed makes runs reproducible when non-zero.
	RandSeed int64
}

// DefaultOptions is a small but connected data set.
func DefaultOptions() Options {
	return Options{
		NumUsers:         12,
		VideosPerUser:    4,
		TweetsPerUser:    3,
		CommentsPerVideo: 3,
		MaxDays:          90,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users         int
	Videos        int
	Tweets        int
	Comments      int
	Likes         int
	Subscriptions int
	Playlists     int
	HistoryItems  int
}

func (s Summary) String() string {
	return fmt.Sprintf("users=%d videos=%d tweets=%d comments=%d likes=%d subscriptions=%d playlists=%d history=%d",
		s.Users, s.Videos, s.Tweets, s.Comments, s.Likes, s.Subscriptions, s.Playlists, s.HistoryItems)
}

// Seeder fills a database with a connected graph of channels and content.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

// NewSeeder creates a seeder using opts.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts), opts: opts}
}

// Seed populates the database with demo data
func Seed(db *gorm.DB, opts Options) (Summary, error) {
	return NewSeeder(db, opts).Run()
}

// Run creates users first, then their content, then the edges between them.
func (s *Seeder) Run() (Summary, error) {
	var sum Summary
	log.Printf("🌱 Starting database seeding with %d users...", s.opts.NumUsers)

	if s.opts.ShouldClean && !s.opts.DryRun {
		if err := clearData(s.db); err != nil {
			log.Printf("⚠️  Warning: could not clear existing data: %v", err)
		}
	}

	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return sum, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	if len(users) == 0 {
		return sum, nil
	}

	var published []*models.Video
	byOwner := make(map[uint][]*models.Video, len(users))
	for _, u := range users {
		for i := 0; i < s.opts.VideosPerUser; i++ {
			v, err := s.factory.CreateVideo(u)
			if err != nil {
				return sum, fmt.Errorf("failed to create video: %w", err)
			}
			sum.Videos++
			byOwner[u.ID] = append(byOwner[u.ID], v)
			if v.IsPublished {
				published = append(published, v)
			}
		}
	}

	var tweets []*models.Tweet
	for _, u := range users {
		for i := 0; i < s.opts.TweetsPerUser; i++ {
			t, err := s.factory.CreateTweet(u)
			if err != nil {
				return sum, fmt.Errorf("failed to create tweet: %w", err)
			}
			tweets = append(tweets, t)
		}
	}
	sum.Tweets = len(tweets)

	if s.opts.DryRun {
		logDryRun("%d users, %d videos, %d tweets built (no DB write)", sum.Users, sum.Videos, sum.Tweets)
		return sum, nil
	}

	for _, v := range published {
		for i := 0; i < s.opts.CommentsPerVideo; i++ {
			author := users[s.factory.rng.Intn(len(users))]
			c, err := s.factory.CreateComment(author, models.VideoTarget(v.ID))
			if err != nil {
				return sum, fmt.Errorf("failed to create comment: %w", err)
			}
			sum.Comments++
			if s.factory.rng.Float32() < 0.3 {
				if err := s.factory.CreateLike(users[s.factory.rng.Intn(len(users))], models.CommentTarget(c.ID)); err != nil {
					return sum, fmt.Errorf("failed to like comment: %w", err)
				}
				sum.Likes++
			}
		}
	}

	for i, u := range users {
		// each user follows roughly a third of the other channels
		for j, channel := range users {
			if i == j || s.factory.rng.Intn(3) != 0 {
				continue
			}
			if err := s.factory.CreateSubscription(u, channel); err != nil {
				return sum, fmt.Errorf("failed to create subscription: %w", err)
			}
			sum.Subscriptions++
		}

		for _, v := range published {
			if s.factory.rng.Float32() < 0.25 {
				if err := s.factory.CreateLike(u, models.VideoTarget(v.ID)); err != nil {
					return sum, fmt.Errorf("failed to like video: %w", err)
				}
				sum.Likes++
			}
		}
		for _, t := range tweets {
			if t.IsPublic && s.factory.rng.Float32() < 0.15 {
				if err := s.factory.CreateLike(u, models.TweetTarget(t.ID)); err != nil {
					return sum, fmt.Errorf("failed to like tweet: %w", err)
				}
				sum.Likes++
			}
		}

		watched := 0
		for _, v := range published {
			if watched >= models.MaxWatchHistory {
				break
			}
			if s.factory.rng.Float32() < 0.4 {
				at := time.Now().Add(-time.Duration(s.factory.rng.Intn(30*24)) * time.Hour)
				if err := s.factory.RecordWatch(u, v, at); err != nil {
					return sum, fmt.Errorf("failed to record history: %w", err)
				}
				watched++
			}
		}
		sum.HistoryItems += watched

		if own := byOwner[u.ID]; len(own) > 0 {
			if _, err := s.factory.CreatePlaylist(u, own); err != nil {
				return sum, fmt.Errorf("failed to create playlist: %w", err)
			}
			sum.Playlists++
		}
	}

	log.Printf("🎉 Database seeding completed: %s", sum)
	return sum, nil
}

// clearData removes every row from the application tables, children first.
func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	all := database.PersistentModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(all[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
