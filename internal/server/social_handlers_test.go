package server

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"tubbit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTweets(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedUser(t, "author")
	reader := env.seedUser(t, "reader")
	token := env.tokenFor(t, author.ID)

	resp, body := env.sendForm(t, http.MethodPost, "/api/v1/tweets", token,
		map[string]string{"content": "hello <b>world</b><script>alert(1)</script>"}, pngPart(t, "image"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var public models.Tweet
	body.into(t, &public)
	assert.True(t, public.IsPublic)
	assert.NotContains(t, public.Content, "<script>")
	assert.NotEmpty(t, public.Image)

	resp, body = env.sendForm(t, http.MethodPost, "/api/v1/tweets", token,
		map[string]string{"content": "just for me", "isPublic": "false"}, pngPart(t, "image"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)

	resp, _ = env.sendForm(t, http.MethodPost, "/api/v1/tweets", token,
		map[string]string{"content": "x", "isPublic": "maybe"}, pngPart(t, "image"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.sendForm(t, http.MethodPost, "/api/v1/tweets", token,
		map[string]string{"content": strings.Repeat("a", models.MaxTweetLength+1)}, pngPart(t, "image"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.sendForm(t, http.MethodPost, "/api/v1/tweets", token, map[string]string{"content": "no image"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	listed := func(viewerToken string) int64 {
		t.Helper()
		resp, body := env.get(t, fmt.Sprintf("/api/v1/tweets/user/%d", author.ID), viewerToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var page models.TweetPage
		body.into(t, &page)
		return page.TotalDocs
	}
	assert.Equal(t, int64(2), listed(token))
	assert.Equal(t, int64(1), listed(env.tokenFor(t, reader.ID)))
	assert.Equal(t, int64(1), listed(""))

	resp, _ = env.get(t, "/api/v1/tweets/user/9999", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	tweetPath := fmt.Sprintf("/api/v1/tweets/%d", public.ID)
	resp, _ = env.sendJSON(t, http.MethodPatch, tweetPath, env.tokenFor(t, reader.ID), map[string]string{"content": "hijacked"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = env.sendJSON(t, http.MethodPatch, tweetPath, token, map[string]string{"content": "edited"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	var edited models.Tweet
	body.into(t, &edited)
	assert.Equal(t, "edited", edited.Content)

	comment := &models.Comment{Content: "first", OwnerID: reader.ID, TargetType: models.TargetTweet, TargetID: public.ID}
	require.NoError(t, env.db.Omit("Owner").Create(comment).Error)
	require.NoError(t, env.db.Create(models.NewLike(reader.ID, models.TweetTarget(public.ID))).Error)

	resp, _ = env.do(t, request{method: http.MethodDelete, path: tweetPath, token: env.tokenFor(t, reader.ID)})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = env.do(t, request{method: http.MethodDelete, path: tweetPath, token: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Zero(t, env.count(t, &models.Tweet{}, "id = ?", public.ID))
	assert.Zero(t, env.count(t, &models.Comment{}, "id = ?", comment.ID))
	assert.Zero(t, env.count(t, &models.Like{}, "target_type = ? AND target_id = ?", models.TargetTweet, public.ID))
	assert.Len(t, env.store.Deleted, 1)
}

func TestComments(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "owner")
	commenter := env.seedUser(t, "commenter")
	video := env.seedVideo(t, owner.ID, "talk", true)
	token := env.tokenFor(t, commenter.ID)
	videoPath := fmt.Sprintf("/api/v1/comments/v/%d", video.ID)

	resp, body := env.sendJSON(t, http.MethodPost, videoPath, token, map[string]string{"content": "great talk"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	assert.Equal(t, "Comment added successfully", body.Message)
	var created models.Comment
	body.into(t, &created)
	assert.Equal(t, models.TargetVideo, created.TargetType)
	assert.Equal(t, video.ID, created.TargetID)

	resp, _ = env.sendJSON(t, http.MethodPost, videoPath, token, map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.sendJSON(t, http.MethodPost, "/api/v1/comments/v/9999", token, map[string]string{"content": "hello?"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.sendJSON(t, http.MethodPost, videoPath, "", map[string]string{"content": "anon"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tweet := env.seedTweet(t, owner.ID, "a tweet", true)
	resp, _ = env.sendJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/comments/t/%d", tweet.ID), token, map[string]string{"content": "reply"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = env.get(t, videoPath, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page models.CommentPage
	body.into(t, &page)
	require.Len(t, page.Docs, 1)
	assert.Equal(t, "great talk", page.Docs[0].Content)
	require.NotNil(t, page.Docs[0].Owner)
	assert.Equal(t, "commenter", page.Docs[0].Owner.Username)

	commentPath := fmt.Sprintf("/api/v1/comments/c/%d", created.ID)
	resp, _ = env.sendJSON(t, http.MethodPatch, commentPath, env.tokenFor(t, owner.ID), map[string]string{"content": "edited by video owner"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = env.sendJSON(t, http.MethodPatch, commentPath, token, map[string]string{"content": "really great talk"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)

	require.NoError(t, env.db.Create(models.NewLike(owner.ID, models.CommentTarget(created.ID))).Error)
	resp, body = env.do(t, request{method: http.MethodDelete, path: commentPath, token: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var deleted map[string]uint
	body.into(t, &deleted)
	assert.Equal(t, created.ID, deleted["commentId"])
	assert.Zero(t, env.count(t, &models.Like{}, "target_type = ? AND target_id = ?", models.TargetComment, created.ID))

	resp, _ = env.do(t, request{method: http.MethodDelete, path: commentPath, token: token})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestToggleLikes(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "owner")
	fan := env.seedUser(t, "fan")
	video := env.seedVideo(t, owner.ID, "likeable", true)
	env.seedVideo(t, owner.ID, "ignored", true)
	token := env.tokenFor(t, fan.ID)
	path := fmt.Sprintf("/api/v1/likes/toggle/v/%d", video.ID)

	resp, body := env.do(t, request{method: http.MethodPost, path: path, token: token})
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	assert.Equal(t, "Like added", body.Message)
	var res models.ToggleResult
	body.into(t, &res)
	assert.True(t, res.Active)

	resp, body = env.get(t, "/api/v1/likes/videos", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var liked models.VideoPage
	body.into(t, &liked)
	require.Len(t, liked.Docs, 1)
	assert.Equal(t, video.ID, liked.Docs[0].ID)

	resp, body = env.do(t, request{method: http.MethodPost, path: path, token: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Like removed", body.Message)
	assert.Zero(t, env.count(t, &models.Like{}, "liked_by_id = ?", fan.ID))

	resp, _ = env.do(t, request{method: http.MethodPost, path: "/api/v1/likes/toggle/t/9999", token: token})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, request{method: http.MethodPost, path: "/api/v1/likes/toggle/c/abc", token: token})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, request{method: http.MethodPost, path: path})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSubscriptions(t *testing.T) {
	env := newTestEnv(t)
	channel := env.seedUser(t, "channel")
	fan := env.seedUser(t, "fan")
	token := env.tokenFor(t, fan.ID)
	path := fmt.Sprintf("/api/v1/subscriptions/c/%d", channel.ID)

	resp, body := env.do(t, request{method: http.MethodPost, path: path, token: token})
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	assert.Equal(t, "Subscribed successfully", body.Message)

	resp, body = env.get(t, path, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var subscribers []models.UserSummary
	body.into(t, &subscribers)
	require.Len(t, subscribers, 1)
	assert.Equal(t, "fan", subscribers[0].Username)

	resp, body = env.get(t, fmt.Sprintf("/api/v1/subscriptions/u/%d", fan.ID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var channels []models.UserSummary
	body.into(t, &channels)
	require.Len(t, channels, 1)
	assert.Equal(t, channel.ID, channels[0].ID)

	resp, body = env.do(t, request{method: http.MethodPost, path: path, token: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Unsubscribed successfully", body.Message)
	assert.Zero(t, env.count(t, &models.Subscription{}, "channel_id = ?", channel.ID))

	resp, _ = env.do(t, request{method: http.MethodPost, path: fmt.Sprintf("/api/v1/subscriptions/c/%d", fan.ID), token: token})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, request{method: http.MethodPost, path: "/api/v1/subscriptions/c/9999", token: token})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPlaylists(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "curator")
	stranger := env.seedUser(t, "stranger")
	token := env.tokenFor(t, owner.ID)
	strangerToken := env.tokenFor(t, stranger.ID)
	first := env.seedVideo(t, stranger.ID, "one", true)
	second := env.seedVideo(t, stranger.ID, "two", true)

	resp, body := env.sendJSON(t, http.MethodPost, "/api/v1/playlist", token, map[string]any{"name": "Mix", "description": "songs"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var mix models.Playlist
	body.into(t, &mix)
	assert.True(t, mix.IsPublished)

	resp, body = env.sendJSON(t, http.MethodPost, "/api/v1/playlist", token, map[string]any{"name": "Secret", "isPublished": false})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var secret models.Playlist
	body.into(t, &secret)

	resp, _ = env.sendJSON(t, http.MethodPost, "/api/v1/playlist", token, map[string]any{"name": " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	for _, v := range []*models.Video{first, second, first} {
		resp, body = env.do(t, request{method: http.MethodPatch, path: fmt.Sprintf("/api/v1/playlist/add/%d/%d", v.ID, mix.ID), token: token})
		require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	}
	var afterAdd models.Playlist
	body.into(t, &afterAdd)
	require.Len(t, afterAdd.Videos, 2)
	assert.Equal(t, first.ID, afterAdd.Videos[0].ID)
	assert.Equal(t, second.ID, afterAdd.Videos[1].ID)

	resp, _ = env.do(t, request{method: http.MethodPatch, path: fmt.Sprintf("/api/v1/playlist/add/%d/%d", first.ID, mix.ID), token: strangerToken})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = env.do(t, request{method: http.MethodPatch, path: fmt.Sprintf("/api/v1/playlist/remove/%d/%d", first.ID, mix.ID), token: token})
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	resp, body = env.do(t, request{method: http.MethodPatch, path: fmt.Sprintf("/api/v1/playlist/remove/%d/%d", first.ID, mix.ID), token: token})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Video is not in this playlist", body.Message)

	resp, _ = env.get(t, fmt.Sprintf("/api/v1/playlist/%d", secret.ID), strangerToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = env.get(t, fmt.Sprintf("/api/v1/playlist/%d", secret.ID), token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	userPath := fmt.Sprintf("/api/v1/playlist/user/%d", owner.ID)
	var lists []models.Playlist
	_, body = env.get(t, userPath, strangerToken)
	body.into(t, &lists)
	assert.Len(t, lists, 1)
	_, body = env.get(t, userPath, token)
	body.into(t, &lists)
	assert.Len(t, lists, 2)

	mixPath := fmt.Sprintf("/api/v1/playlist/%d", mix.ID)
	resp, _ = env.sendJSON(t, http.MethodPatch, mixPath, strangerToken, map[string]any{"name": "Mine now"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, body = env.sendJSON(t, http.MethodPatch, mixPath, token, map[string]any{"name": "Mix v2", "description": "more songs"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	var renamed models.Playlist
	body.into(t, &renamed)
	assert.Equal(t, "Mix v2", renamed.Name)

	resp, _ = env.do(t, request{method: http.MethodDelete, path: mixPath, token: strangerToken})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = env.do(t, request{method: http.MethodDelete, path: mixPath, token: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, env.count(t, &models.PlaylistVideo{}, "playlist_id = ?", mix.ID))
	assert.Equal(t, int64(2), env.count(t, &models.Video{}, "owner_id = ?", stranger.ID))
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	creator := env.seedUser(t, "creator")
	fan := env.seedUser(t, "fan")
	live := env.seedVideo(t, creator.ID, "live", true)
	env.seedVideo(t, creator.ID, "hidden", false)
	require.NoError(t, env.db.Model(&models.Video{}).Where("id = ?", live.ID).Update("views", 41).Error)
	require.NoError(t, env.db.Create(models.NewLike(fan.ID, models.VideoTarget(live.ID))).Error)
	require.NoError(t, env.db.Create(&models.Subscription{SubscriberID: fan.ID, ChannelID: creator.ID}).Error)
	token := env.tokenFor(t, creator.ID)

	resp, body := env.get(t, "/api/v1/dashboard/stats", token)
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	var stats models.ChannelStats
	body.into(t, &stats)
	assert.Equal(t, models.ChannelStats{TotalVideos: 2, TotalViews: 41, TotalSubscribers: 1, TotalLikes: 1}, stats)

	resp, body = env.get(t, "/api/v1/dashboard/videos", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page models.VideoPage
	body.into(t, &page)
	assert.Equal(t, int64(2), page.TotalDocs)

	resp, _ = env.get(t, "/api/v1/dashboard/stats", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
