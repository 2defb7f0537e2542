package notifications

import (
	"time"

	"tubbit/internal/models"
)

// Event types delivered to users.
const (
	EventChannelSubscribed = "channel.subscribed"
	EventContentLiked      = "content.liked"
	EventCommentCreated    = "comment.created"
)

// Event is the JSON payload pushed to a user's sockets.
type Event struct {
	Type       string            `json:"type"`
	ActorID    uint              `json:"actorId"`
	TargetType models.TargetKind `json:"targetType,omitempty"`
	TargetID   uint              `json:"targetId,omitempty"`
	CommentID  uint              `json:"commentId,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Subscribed is sent to a channel owner when someone subscribes.
func Subscribed(subscriberID uint) Event {
	return Event{Type: EventChannelSubscribed, ActorID: subscriberID, CreatedAt: time.Now().UTC()}
}

// Liked is sent to the owner of liked content.
func Liked(likerID uint, target models.Target) Event {
	return Event{
		Type:       EventContentLiked,
		ActorID:    likerID,
		TargetType: target.Kind,
		TargetID:   target.ID,
		CreatedAt:  time.Now().UTC(),
	}
}

// Commented is sent to the owner of the video or tweet that received a comment.
func Commented(authorID uint, target models.Target, commentID uint) Event {
	return Event{
		Type:       EventCommentCreated,
		ActorID:    authorID,
		TargetType: target.Kind,
		TargetID:   target.ID,
		CommentID:  commentID,
		CreatedAt:  time.Now().UTC(),
	}
}
