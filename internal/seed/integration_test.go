//go:build integration

package seed

import (
	"net/url"
	"os"
	"strings"
	"testing"

	"tubbit/internal/config"
	"tubbit/internal/database"
	"tubbit/internal/models"
)

func parseDatabaseURLToConfig(dsn string) (*config.Config, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}
	password := ""
	if u.User != nil {
		password, _ = u.User.Password()
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	return &config.Config{
		DBHost:       u.Hostname(),
		DBPort:       port,
		DBUser:       u.User.Username(),
		DBPassword:   password,
		DBName:       strings.TrimPrefix(u.Path, "/"),
		DBSSLMode:    "disable",
		Env:          "test",
		DBSchemaMode: "auto",
	}, nil
}

func TestIntegration_SeedPostgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration seed test")
	}
	cfg, err := parseDatabaseURLToConfig(dsn)
	if err != nil {
		t.Fatalf("failed parse dsn: %v", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: true})
	if err != nil {
		t.Fatalf("db connect failed: %v", err)
	}

	sum, err := Seed(db, Options{NumUsers: 8, VideosPerUser: 2, TweetsPerUser: 1, CommentsPerVideo: 1, SkipBcrypt: true, ShouldClean: true})
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	var cnt int64
	if err := db.Model(&models.Video{}).Count(&cnt).Error; err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if cnt != int64(sum.Videos) {
		t.Fatalf("expected %d seeded videos, got %d", sum.Videos, cnt)
	}
}
