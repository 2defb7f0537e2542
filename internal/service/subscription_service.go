package service

import (
	"context"

	"tubbit/internal/models"
	"tubbit/internal/notifications"
	"tubbit/internal/repository"
)

type SubscriptionService struct {
	subRepo  repository.SubscriptionRepository
	userRepo repository.UserRepository
	notifier EventNotifier
}

func NewSubscriptionService(
	subRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	notifier EventNotifier,
) *SubscriptionService {
	return &SubscriptionService{subRepo: subRepo, userRepo: userRepo, notifier: notifierOrNoop(notifier)}
}

func (s *SubscriptionService) requireChannel(ctx context.Context, channelID uint) error {
	return s.requireUser(ctx, channelID, "channel", "Channel")
}

func (s *SubscriptionService) requireSubscriber(ctx context.Context, subscriberID uint) error {
	return s.requireUser(ctx, subscriberID, "subscriber", "Subscriber")
}

// requireUser checks that id names a user, wording errors after the role
// the user plays in the request.
func (s *SubscriptionService) requireUser(ctx context.Context, id uint, role, title string) error {
	if id == 0 {
		return models.NewValidationError("Invalid " + role + " ID")
	}
	exists, err := s.userRepo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundMessage(title + " does not exist")
	}
	return nil
}

// ToggleSubscription subscribes subscriberID to channelID or, if already
// subscribed, unsubscribes. Users cannot subscribe to themselves.
func (s *SubscriptionService) ToggleSubscription(ctx context.Context, subscriberID, channelID uint) (*models.ToggleResult, error) {
	if subscriberID == channelID {
		return nil, models.NewValidationError("You cannot subscribe to your own channel")
	}
	if err := s.requireChannel(ctx, channelID); err != nil {
		return nil, err
	}
	subscribed, err := s.subRepo.Toggle(ctx, subscriberID, channelID)
	if err != nil {
		return nil, err
	}
	if subscribed {
		s.notifier.Notify(ctx, channelID, notifications.Subscribed(subscriberID))
	}
	return &models.ToggleResult{Active: subscribed}, nil
}

// ListSubscribers returns the users subscribed to channelID, newest first.
func (s *SubscriptionService) ListSubscribers(ctx context.Context, channelID uint) ([]models.UserSummary, error) {
	if err := s.requireChannel(ctx, channelID); err != nil {
		return nil, err
	}
	subs, err := s.subRepo.ListSubscribers(ctx, channelID)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, 0, len(subs))
	for _, sub := range subs {
		if sub.Subscriber != nil {
			out = append(out, *sub.Subscriber)
		}
	}
	return out, nil
}

// ListSubscribedChannels returns the channels subscriberID follows, newest first.
func (s *SubscriptionService) ListSubscribedChannels(ctx context.Context, subscriberID uint) ([]models.UserSummary, error) {
	if err := s.requireSubscriber(ctx, subscriberID); err != nil {
		return nil, err
	}
	subs, err := s.subRepo.ListSubscribedChannels(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, 0, len(subs))
	for _, sub := range subs {
		if sub.Channel != nil {
			out = append(out, *sub.Channel)
		}
	}
	return out, nil
}
