package server

import (
	"fmt"
	"net/http"
	"testing"

	"tubbit/internal/config"
	"tubbit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishVideo(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "creator")
	token := env.tokenFor(t, owner.ID)
	fields := map[string]string{"title": "  My first upload ", "description": "hello world"}

	resp, body := env.sendForm(t, http.MethodPost, "/api/v1/videos", token, fields,
		videoPart("videoFile"), pngPart(t, "thumbnail"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)

	var video models.Video
	body.into(t, &video)
	assert.Equal(t, "My first upload", video.Title)
	assert.Equal(t, 12.5, video.Duration)
	assert.True(t, video.IsPublished)
	assert.Equal(t, owner.ID, video.OwnerID)
	assert.NotEmpty(t, video.VideoFile)
	assert.NotEmpty(t, video.Thumbnail)
	assert.Len(t, env.store.Objects, 2)

	t.Run("requires a thumbnail", func(t *testing.T) {
		resp, body := env.sendForm(t, http.MethodPost, "/api/v1/videos", token, fields, videoPart("videoFile"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Thumbnail file is required", body.Message)
	})

	t.Run("rejects an image as the video", func(t *testing.T) {
		resp, _ := env.sendForm(t, http.MethodPost, "/api/v1/videos", token, fields,
			pngPart(t, "videoFile"), pngPart(t, "thumbnail"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("requires title and description", func(t *testing.T) {
		resp, body := env.sendForm(t, http.MethodPost, "/api/v1/videos", token, map[string]string{"title": "x"},
			videoPart("videoFile"), pngPart(t, "thumbnail"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Title and description are required", body.Message)
	})

	t.Run("requires a session", func(t *testing.T) {
		resp, _ := env.sendForm(t, http.MethodPost, "/api/v1/videos", "", fields,
			videoPart("videoFile"), pngPart(t, "thumbnail"))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	assert.Len(t, env.store.Objects, 2, "failed uploads leave nothing behind")
}

func TestSearchVideos(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "creator")
	env.seedVideo(t, owner.ID, "Go concurrency patterns", true)
	env.seedVideo(t, owner.ID, "Cooking pasta", true)
	env.seedVideo(t, owner.ID, "Go draft", false)

	tests := []struct {
		name        string
		query       string
		wantStatus  int
		wantTitles  []string
		wantRelated bool
		wantMessage string
	}{
		{
			name:        "exact match",
			query:       "?query=CONCURRENCY",
			wantStatus:  http.StatusOK,
			wantTitles:  []string{"Go concurrency patterns"},
			wantMessage: "Videos fetched successfully",
		},
		{
			name:        "falls back to any word",
			query:       "?query=rust%20pasta",
			wantStatus:  http.StatusOK,
			wantTitles:  []string{"Cooking pasta"},
			wantRelated: true,
			wantMessage: "No exact matches, showing related videos",
		},
		{
			name:        "nothing related",
			query:       "?query=quantum%20chromodynamics",
			wantStatus:  http.StatusNotFound,
			wantMessage: "No videos found",
		},
		{
			name:       "empty query lists published videos only",
			query:      "?sortBy=createdAt&sortType=asc",
			wantStatus: http.StatusOK,
			wantTitles: []string{"Go concurrency patterns", "Cooking pasta"},
		},
		{
			name:       "invalid sort field",
			query:      "?sortBy=title",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid sort direction",
			query:      "?sortType=sideways",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "non-numeric owner",
			query:       "?userId=abc",
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid user ID",
		},
		{
			name:        "negative owner",
			query:       "?userId=-3",
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid user ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.get(t, "/api/v1/videos"+tt.query, "")
			require.Equal(t, tt.wantStatus, resp.StatusCode, body.Message)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body.Message)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var page models.VideoPage
			body.into(t, &page)
			assert.Equal(t, tt.wantRelated, page.Related)
			var titles []string
			for _, v := range page.Docs {
				titles = append(titles, v.Title)
			}
			assert.Equal(t, tt.wantTitles, titles)
			assert.Equal(t, int64(len(tt.wantTitles)), page.TotalDocs)
		})
	}
}

func TestSearchVideos_PagePastEndSkipsFallback(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "creator")
	env.seedVideo(t, owner.ID, "Go concurrency patterns", true)
	env.seedVideo(t, owner.ID, "Cooking pasta", true)

	resp, body := env.get(t, "/api/v1/videos?query=concurrency&page=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	var page models.VideoPage
	body.into(t, &page)
	assert.Empty(t, page.Docs)
	assert.False(t, page.Related, "an exact match exists, so no related results")
	assert.Equal(t, int64(1), page.TotalDocs)
	assert.Equal(t, 5, page.Page)
	assert.False(t, page.HasNextPage)
}

func TestSearchVideos_FilterByOwner(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")
	env.seedVideo(t, alice.ID, "Alice vlog", true)
	env.seedVideo(t, bob.ID, "Bob vlog", true)

	resp, body := env.get(t, fmt.Sprintf("/api/v1/videos?userId=%d", bob.ID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	var page models.VideoPage
	body.into(t, &page)
	require.Len(t, page.Docs, 1)
	assert.Equal(t, "Bob vlog", page.Docs[0].Title)
}

func TestSearchVideos_FallbackCanBeDisabled(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.FeatureFlags = "search_fallback=off"
	})
	owner := env.seedUser(t, "creator")
	env.seedVideo(t, owner.ID, "Cooking pasta", true)

	resp, body := env.get(t, "/api/v1/videos?query=rust%20pasta", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page models.VideoPage
	body.into(t, &page)
	assert.Empty(t, page.Docs)
	assert.False(t, page.Related)
}

func TestVideoOwnerOnlyMutations(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "owner")
	intruder := env.seedUser(t, "intruder")
	video := env.seedVideo(t, owner.ID, "mine", true)
	path := fmt.Sprintf("/api/v1/videos/%d", video.ID)
	intruderToken := env.tokenFor(t, intruder.ID)

	resp, body := env.sendForm(t, http.MethodPatch, path, intruderToken, map[string]string{"title": "stolen", "description": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You do not have permission to update this video", body.Message)

	resp, _ = env.do(t, request{method: http.MethodPatch, path: fmt.Sprintf("/api/v1/videos/toggle/publish/%d", video.ID), token: intruderToken})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, request{method: http.MethodDelete, path: path, token: intruderToken})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, request{method: http.MethodDelete, path: "/api/v1/videos/9999", token: intruderToken})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var stored models.Video
	require.NoError(t, env.db.First(&stored, video.ID).Error)
	assert.Equal(t, "mine", stored.Title)
	assert.True(t, stored.IsPublished)
}

func TestUpdateVideoAndTogglePublish(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "owner")
	viewer := env.seedUser(t, "viewer")
	video := env.seedVideo(t, owner.ID, "draft", true)
	token := env.tokenFor(t, owner.ID)

	resp, body := env.sendForm(t, http.MethodPatch, fmt.Sprintf("/api/v1/videos/%d", video.ID), token,
		map[string]string{"title": "Final cut", "description": "now with sound"}, pngPart(t, "thumbnail"))
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	var updated models.Video
	body.into(t, &updated)
	assert.Equal(t, "Final cut", updated.Title)
	assert.Contains(t, env.store.Deleted, video.ThumbnailPublicID)

	resp, body = env.do(t, request{method: http.MethodPatch, path: fmt.Sprintf("/api/v1/videos/toggle/publish/%d", video.ID), token: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var toggled models.Video
	body.into(t, &toggled)
	assert.False(t, toggled.IsPublished)

	resp, _ = env.get(t, fmt.Sprintf("/api/v1/videos/%d", video.ID), env.tokenFor(t, viewer.ID))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = env.get(t, fmt.Sprintf("/api/v1/videos/%d", video.ID), token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeleteVideo_Cascades(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "owner")
	fan := env.seedUser(t, "fan")
	video := env.seedVideo(t, owner.ID, "doomed", true)
	keep := env.seedVideo(t, owner.ID, "survivor", true)

	comment := &models.Comment{Content: "nice", OwnerID: fan.ID, TargetType: models.TargetVideo, TargetID: video.ID}
	require.NoError(t, env.db.Omit("Owner").Create(comment).Error)
	require.NoError(t, env.db.Create(models.NewLike(fan.ID, models.VideoTarget(video.ID))).Error)
	require.NoError(t, env.db.Create(models.NewLike(owner.ID, models.CommentTarget(comment.ID))).Error)
	require.NoError(t, env.db.Create(models.NewLike(fan.ID, models.VideoTarget(keep.ID))).Error)
	playlist := &models.Playlist{Name: "faves", OwnerID: fan.ID, IsPublished: true}
	require.NoError(t, env.db.Omit("Owner").Create(playlist).Error)
	require.NoError(t, env.db.Create(&models.PlaylistVideo{PlaylistID: playlist.ID, VideoID: video.ID, Position: 1}).Error)
	require.NoError(t, env.db.Create(&models.WatchHistoryEntry{UserID: fan.ID, VideoID: video.ID}).Error)

	resp, body := env.do(t, request{method: http.MethodDelete, path: fmt.Sprintf("/api/v1/videos/%d", video.ID), token: env.tokenFor(t, owner.ID)})
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)

	assert.Zero(t, env.count(t, &models.Video{}, "id = ?", video.ID))
	assert.Zero(t, env.count(t, &models.Comment{}, "target_type = ? AND target_id = ?", models.TargetVideo, video.ID))
	assert.Zero(t, env.count(t, &models.Like{}, "target_type = ? AND target_id = ?", models.TargetVideo, video.ID))
	assert.Zero(t, env.count(t, &models.Like{}, "target_type = ? AND target_id = ?", models.TargetComment, comment.ID))
	assert.Zero(t, env.count(t, &models.PlaylistVideo{}, "video_id = ?", video.ID))
	assert.Zero(t, env.count(t, &models.WatchHistoryEntry{}, "video_id = ?", video.ID))
	assert.Equal(t, int64(1), env.count(t, &models.Like{}, "target_id = ?", keep.ID))
	assert.ElementsMatch(t, []string{video.VideoFilePublicID, video.ThumbnailPublicID}, env.store.Deleted)
}
