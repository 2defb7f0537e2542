package repository

import (
	"context"

	"tubbit/internal/models"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

// DashboardRepository aggregates channel statistics for a creator.
type DashboardRepository interface {
	ChannelStats(ctx context.Context, ownerID uint) (*models.ChannelStats, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository returns a new DashboardRepository implementation.
func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

// channelStatsQuery builds one statement with a sub-select per total.
func channelStatsQuery(ownerID uint) (string, []interface{}, error) {
	ownedVideos := sq.Select("id").From("videos").Where(sq.Eq{"owner_id": ownerID})
	ownedSQL, ownedArgs, err := ownedVideos.ToSql()
	if err != nil {
		return "", nil, err
	}

	likeArgs := append([]interface{}{models.TargetVideo}, ownedArgs...)
	return sq.Select().
		Column(sq.Expr("(SELECT COUNT(*) FROM videos WHERE owner_id = ?) AS total_videos", ownerID)).
		Column(sq.Expr("(SELECT CAST(COALESCE(SUM(views), 0) AS BIGINT) FROM videos WHERE owner_id = ?) AS total_views", ownerID)).
		Column(sq.Expr("(SELECT COUNT(*) FROM subscriptions WHERE channel_id = ?) AS total_subscribers", ownerID)).
		Column(sq.Expr("(SELECT COUNT(*) FROM likes WHERE target_type = ? AND target_id IN ("+ownedSQL+")) AS total_likes", likeArgs...)).
		ToSql()
}

func (r *dashboardRepository) ChannelStats(ctx context.Context, ownerID uint) (*models.ChannelStats, error) {
	query, args, err := channelStatsQuery(ownerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	var stats models.ChannelStats
	if err := readDB(r.db).WithContext(ctx).Raw(query, args...).Scan(&stats).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &stats, nil
}
