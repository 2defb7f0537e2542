// Package service implements the application's use cases on top of the repositories.
package service

import (
	"context"
	"errors"
	"fmt"

	"tubbit/internal/models"
	"tubbit/internal/notifications"
	"tubbit/internal/storage"
)

// uploadError turns an uploader failure into a client error where the client is at fault.
func uploadError(what string, err error) error {
	switch {
	case errors.Is(err, storage.ErrEmpty):
		return models.NewValidationError(what + " file is required")
	case errors.Is(err, storage.ErrTooLarge):
		return models.NewValidationError(what + " file is too large")
	case errors.Is(err, storage.ErrUnsupported):
		return models.NewValidationError(what + " file type is not supported")
	}
	return models.NewInternalError(fmt.Errorf("upload %s: %w", what, err))
}

// requireOwner rejects mutations by anyone but the owner.
func requireOwner(ownerID, userID uint, action string) error {
	if ownerID != userID {
		return models.NewUnauthorizedError("You do not have permission to " + action)
	}
	return nil
}

// pageParams applies the list defaults: page 1, 10 per page, at most 100.
func pageParams(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// EventNotifier delivers realtime events best effort.
type EventNotifier interface {
	Notify(ctx context.Context, recipientID uint, ev notifications.Event)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, uint, notifications.Event) {}

func notifierOrNoop(n EventNotifier) EventNotifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
