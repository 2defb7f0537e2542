package models

import "time"

// Subscription is a directed edge subscriber -> channel.
type Subscription struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	SubscriberID uint         `gorm:"not null;uniqueIndex:idx_subscriptions_edge" json:"subscriberId"`
	Subscriber   *UserSummary `gorm:"foreignKey:SubscriberID;-:migration" json:"subscriber,omitempty"`
	ChannelID    uint         `gorm:"not null;uniqueIndex:idx_subscriptions_edge;index" json:"channelId"`
	Channel      *UserSummary `gorm:"foreignKey:ChannelID;-:migration" json:"channel,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}
