package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"tubbit/internal/config"
	"tubbit/internal/database"
	"tubbit/internal/middleware"
	"tubbit/internal/models"
	"tubbit/internal/oauth"
	"tubbit/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const testPassword = "Sup3rSecret!pw"

// captureMailer records the last code sent to each address.
type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *captureMailer) SendOTP(_ context.Context, to, code string, _ models.OTPPurpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = code
	return nil
}

func (m *captureMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type testEnv struct {
	srv    *Server
	app    *fiber.App
	db     *gorm.DB
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	store  *testutil.MemoryStore
	mailer *captureMailer
	cfg    *config.Config
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:                "test",
		JWTSecret:          "test-access-secret",
		RefreshTokenSecret: "test-refresh-secret",
		AccessTokenTTLMin:  15,
		RefreshTokenTTLHr:  24,
		AllowedOrigins:     "http://localhost:5173",
		MediaTempDir:       t.TempDir(),
		MediaMaxUpload:     50,
		ImageMaxUpload:     5,
		OTPTTLMinutes:      5,
		OTPVerifiedTTLM:    10,
	}
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

func newTestEnv(t *testing.T, configure ...func(*config.Config)) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	cfg := testConfig(t)
	for _, fn := range configure {
		fn(cfg)
	}
	db := newTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := testutil.NewMemoryStore()
	mail := &captureMailer{codes: make(map[string]string)}

	srv, err := NewServerWithDeps(cfg, Deps{
		DB:       db,
		Redis:    rdb,
		Store:    store,
		Prober:   testutil.StaticProber(12.5),
		Mailer:   mail,
		Registry: oauth.NewRegistry(),
	})
	require.NoError(t, err)

	return &testEnv{
		srv:    srv,
		app:    srv.newApp(),
		db:     db,
		mr:     mr,
		rdb:    rdb,
		store:  store,
		mailer: mail,
		cfg:    cfg,
	}
}

// envelope is the decoded success or error body.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func (e envelope) into(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, v))
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	token       string
	header      http.Header
	cookies     []*http.Cookie
}

func (env *testEnv) do(t *testing.T, r request) (*http.Response, envelope) {
	t.Helper()
	req := httptest.NewRequest(r.method, r.path, r.body)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, ck := range r.cookies {
		req.AddCookie(ck)
	}

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var out envelope
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func (env *testEnv) get(t *testing.T, path, token string) (*http.Response, envelope) {
	t.Helper()
	return env.do(t, request{method: http.MethodGet, path: path, token: token})
}

func (env *testEnv) sendJSON(t *testing.T, method, path, token string, body any) (*http.Response, envelope) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return env.do(t, request{
		method:      method,
		path:        path,
		body:        bytes.NewReader(raw),
		contentType: fiber.MIMEApplicationJSON,
		token:       token,
	})
}

// formPart is one multipart file part with an explicit content type.
type formPart struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

func multipartBody(t *testing.T, fields map[string]string, parts ...formPart) (io.Reader, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
		h.Set("Content-Type", p.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func (env *testEnv) sendForm(t *testing.T, method, path, token string, fields map[string]string, parts ...formPart) (*http.Response, envelope) {
	t.Helper()
	body, ct := multipartBody(t, fields, parts...)
	return env.do(t, request{method: method, path: path, body: body, contentType: ct, token: token})
}

func pngPart(t *testing.T, field string) formPart {
	return formPart{field: field, filename: field + ".png", contentType: "image/png", content: testutil.TinyPNG(t, 4, 4)}
}

func videoPart(field string) formPart {
	return formPart{field: field, filename: "clip.mp4", contentType: "video/mp4", content: []byte("not really an mp4")}
}

func (env *testEnv) seedUser(t *testing.T, username string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Fullname: "User " + username,
		Password: string(hashed),
		AuthType: models.AuthTypeEmailPassword,
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env *testEnv) seedVideo(t *testing.T, ownerID uint, title string, published bool) *models.Video {
	t.Helper()
	video := &models.Video{
		VideoFile:         "https://cdn.test/videos/" + title + ".mp4",
		VideoFilePublicID: "videos/" + title + ".mp4",
		Thumbnail:         "https://cdn.test/thumbnails/" + title + ".webp",
		ThumbnailPublicID: "thumbnails/" + title + ".webp",
		Title:             title,
		Description:       "about " + title,
		Duration:          30,
		IsPublished:       published,
		OwnerID:           ownerID,
	}
	require.NoError(t, env.db.Omit(clause.Associations).Create(video).Error)
	return video
}

func (env *testEnv) seedTweet(t *testing.T, ownerID uint, content string, public bool) *models.Tweet {
	t.Helper()
	tweet := &models.Tweet{Content: content, Image: "https://cdn.test/tweets/1.webp", IsPublic: public, OwnerID: ownerID}
	require.NoError(t, env.db.Omit(clause.Associations).Create(tweet).Error)
	return tweet
}

func (env *testEnv) tokenFor(t *testing.T, userID uint) string {
	t.Helper()
	token, _, err := middleware.IssueToken(env.cfg.JWTSecret, userID, 15*time.Minute)
	require.NoError(t, err)
	return token
}

func (env *testEnv) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}
