package repository

import (
	"context"
	"testing"

	"tubbit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaylistRepository_Entries(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlaylistRepository(db)
	ctx := context.Background()
	owner := seedUser(t, db, "curator")

	a := seedVideo(t, db, owner.ID, "a", videoOpts{views: 10})
	b := seedVideo(t, db, owner.ID, "b", videoOpts{views: 5})
	hidden := seedVideo(t, db, owner.ID, "hidden", videoOpts{views: 1, unpublished: true})

	pl := &models.Playlist{Name: "favorites", Description: "best of", OwnerID: owner.ID}
	require.NoError(t, repo.Create(ctx, pl))

	for _, v := range []*models.Video{b, hidden, a} {
		added, err := repo.AddVideo(ctx, pl.ID, v.ID)
		require.NoError(t, err)
		assert.True(t, added)
	}
	added, err := repo.AddVideo(ctx, pl.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, added, "a video appears at most once")

	public, err := repo.GetByID(ctx, pl.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, videoTitles(public.Videos))
	assert.Equal(t, int64(3), public.VideosCount)
	assert.Equal(t, int64(16), public.TotalViews)
	require.NotNil(t, public.Owner)
	assert.Equal(t, "curator", public.Owner.Username)

	mine, err := repo.GetByID(ctx, pl.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "hidden", "a"}, videoTitles(mine.Videos))

	removed, err := repo.RemoveVideo(ctx, pl.ID, hidden.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.RemoveVideo(ctx, pl.ID, hidden.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	// positions keep growing after a removal
	_, err = repo.AddVideo(ctx, pl.ID, hidden.ID)
	require.NoError(t, err)
	mine, err = repo.GetByID(ctx, pl.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "hidden"}, videoTitles(mine.Videos))
}

func TestPlaylistRepository_CRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlaylistRepository(db)
	ctx := context.Background()
	owner := seedUser(t, db, "curator")
	other := seedUser(t, db, "other")
	v := seedVideo(t, db, owner.ID, "clip", videoOpts{})

	first := &models.Playlist{Name: "one", OwnerID: owner.ID}
	second := &models.Playlist{Name: "two", OwnerID: owner.ID}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, &models.Playlist{Name: "theirs", OwnerID: other.ID}))

	require.NoError(t, repo.Update(ctx, first.ID, "renamed", "now with description"))
	assert.True(t, models.HasCode(repo.Update(ctx, 999, "x", ""), models.CodeNotFound))

	lists, err := repo.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "renamed", lists[0].Name)
	assert.Zero(t, lists[0].VideosCount)

	_, err = repo.AddVideo(ctx, second.ID, v.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, second.ID))
	assert.Zero(t, countRows(t, db, &models.PlaylistVideo{}, "playlist_id = ?", second.ID))

	_, err = repo.GetByID(ctx, second.ID, true)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.True(t, models.HasCode(repo.Delete(ctx, second.ID), models.CodeNotFound))
}
