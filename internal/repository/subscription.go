package repository

import (
	"context"

	"tubbit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository defines persistence operations for subscription edges.
type SubscriptionRepository interface {
	// Toggle removes the edge if present, otherwise creates it, and reports whether it now exists.
	Toggle(ctx context.Context, subscriberID, channelID uint) (bool, error)
	ListSubscribers(ctx context.Context, channelID uint) ([]models.Subscription, error)
	ListSubscribedChannels(ctx context.Context, subscriberID uint) ([]models.Subscription, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository returns a new SubscriptionRepository implementation.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID uint) (bool, error) {
	db := r.db.WithContext(ctx)

	res := db.Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).Delete(&models.Subscription{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	edge := &models.Subscription{SubscriberID: subscriberID, ChannelID: channelID}
	if err := db.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(edge).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return true, nil
}

func (r *subscriptionRepository) ListSubscribers(ctx context.Context, channelID uint) ([]models.Subscription, error) {
	subs := []models.Subscription{}
	err := readDB(r.db).WithContext(ctx).
		Preload("Subscriber", ownerSummary).
		Where("channel_id = ?", channelID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&subs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return subs, nil
}

func (r *subscriptionRepository) ListSubscribedChannels(ctx context.Context, subscriberID uint) ([]models.Subscription, error) {
	subs := []models.Subscription{}
	err := readDB(r.db).WithContext(ctx).
		Preload("Channel", ownerSummary).
		Where("subscriber_id = ?", subscriberID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&subs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return subs, nil
}
