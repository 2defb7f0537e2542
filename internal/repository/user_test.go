package repository

import (
	"context"
	"testing"

	"tubbit/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_CreateUniqueViolationPostgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{Username: "taken", Email: "taken@example.com", Fullname: "T", Password: "x"})
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "  MixedCase ", Email: "Mixed@Example.COM", Fullname: " Mixed Case ", Password: "hashed"}
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, "mixedcase", user.Username)
	assert.Equal(t, "mixed@example.com", user.Email)

	byEmail, err := repo.GetByEmail(ctx, "MIXED@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)

	byEither, err := repo.GetByEmailOrUsername(ctx, "nobody@example.com", "MixedCase")
	require.NoError(t, err)
	require.NotNil(t, byEither)
	assert.Equal(t, user.ID, byEither.ID)

	missing, err := repo.GetByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)

	none, err := repo.GetByEmailOrUsername(ctx, "", "")
	require.NoError(t, err)
	assert.Nil(t, none)

	exists, err := repo.Exists(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	dup := &models.User{Username: "mixedcase", Email: "other@example.com", Fullname: "Other", Password: "hashed"}
	assert.True(t, models.HasCode(repo.Create(ctx, dup), models.CodeConflict))
}

func TestUserRepository_UpdateFieldsAndSecrets(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "editor")

	require.NoError(t, repo.UpdateFields(ctx, user.ID, map[string]interface{}{"fullname": "Edited Name"}))
	require.NoError(t, repo.SetRefreshToken(ctx, user.ID, "refresh-token"))

	got, err := repo.GetByIDWithSecrets(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited Name", got.Fullname)
	assert.Equal(t, "refresh-token", got.RefreshToken)
	assert.Equal(t, "hashed", got.Password)

	err = repo.UpdateFields(ctx, 999, map[string]interface{}{"fullname": "Nobody"})
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	_, err = repo.GetByID(ctx, 999)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestUserRepository_GetChannelProfile(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	subs := NewSubscriptionRepository(db)
	ctx := context.Background()

	channel := seedUser(t, db, "channel")
	fan1 := seedUser(t, db, "fan1")
	fan2 := seedUser(t, db, "fan2")
	stranger := seedUser(t, db, "stranger")

	for _, edge := range [][2]uint{{fan1.ID, channel.ID}, {fan2.ID, channel.ID}, {channel.ID, fan1.ID}} {
		on, err := subs.Toggle(ctx, edge[0], edge[1])
		require.NoError(t, err)
		require.True(t, on)
	}

	tests := []struct {
		name         string
		username     string
		viewerID     uint
		subscribers  int64
		subscribedTo int64
		isSubscribed bool
	}{
		{name: "subscriber viewer", username: "channel", viewerID: fan1.ID, subscribers: 2, subscribedTo: 1, isSubscribed: true},
		{name: "non-subscriber viewer", username: "CHANNEL", viewerID: stranger.ID, subscribers: 2, subscribedTo: 1},
		{name: "anonymous viewer", username: "channel", subscribers: 2, subscribedTo: 1},
		{name: "self view", username: "channel", viewerID: channel.ID, subscribers: 2, subscribedTo: 1},
		{name: "empty channel", username: "stranger", viewerID: fan1.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := repo.GetChannelProfile(ctx, tt.username, tt.viewerID)
			require.NoError(t, err)
			assert.Equal(t, tt.subscribers, profile.SubscribersCount)
			assert.Equal(t, tt.subscribedTo, profile.SubscribedToCount)
			assert.Equal(t, tt.isSubscribed, profile.IsSubscribed)
		})
	}

	_, err := repo.GetChannelProfile(ctx, "ghost", fan1.ID)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.Contains(t, err.Error(), "Channel does not exist")

	_, err = repo.GetChannelProfile(ctx, "   ", 0)
	assert.True(t, models.HasCode(err, models.CodeValidation))
}
