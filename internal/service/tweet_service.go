package service

import (
	"context"

	"tubbit/internal/models"
	"tubbit/internal/repository"
	"tubbit/internal/storage"
	"tubbit/internal/validation"
)

type TweetService struct {
	tweetRepo repository.TweetRepository
	userRepo  repository.UserRepository
	uploader  *storage.Uploader
}

type CreateTweetInput struct {
	OwnerID  uint
	Content  string
	Image    storage.File
	IsPublic *bool
}

type UpdateTweetInput struct {
	UserID  uint
	TweetID uint
	Content string
}

func NewTweetService(
	tweetRepo repository.TweetRepository,
	userRepo repository.UserRepository,
	uploader *storage.Uploader,
) *TweetService {
	return &TweetService{tweetRepo: tweetRepo, userRepo: userRepo, uploader: uploader}
}

func sanitizeTweetContent(content string) (string, error) {
	clean, err := validation.SanitizeTweet(content, models.MaxTweetLength)
	if err != nil {
		return "", models.NewValidationError(err.Error())
	}
	return clean, nil
}

// CreateTweet stores a tweet with its image. Tweets are public unless IsPublic is false.
func (s *TweetService) CreateTweet(ctx context.Context, in CreateTweetInput) (*models.Tweet, error) {
	content, err := sanitizeTweetContent(in.Content)
	if err != nil {
		return nil, err
	}
	asset, err := s.uploader.UploadImage(ctx, storage.FolderTweets, in.Image)
	if err != nil {
		return nil, uploadError("Image", err)
	}

	tweet := &models.Tweet{
		Content:       content,
		Image:         asset.URL,
		ImagePublicID: asset.PublicID,
		IsPublic:      in.IsPublic == nil || *in.IsPublic,
		OwnerID:       in.OwnerID,
	}
	if err := s.tweetRepo.Create(ctx, tweet); err != nil {
		s.uploader.Remove(ctx, asset.PublicID)
		return nil, err
	}
	return s.tweetRepo.GetByID(ctx, tweet.ID)
}

// ListUserTweets pages through ownerID's tweets; private ones are included
// only when the owner is asking.
func (s *TweetService) ListUserTweets(ctx context.Context, ownerID, viewerID uint, page, limit int) (*models.TweetPage, error) {
	exists, err := s.userRepo.Exists(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("User", ownerID)
	}

	page, limit = pageParams(page, limit)
	tweets, total, err := s.tweetRepo.ListByOwner(ctx, ownerID, viewerID == ownerID, page, limit)
	if err != nil {
		return nil, err
	}
	if tweets == nil {
		tweets = []models.Tweet{}
	}
	return &models.TweetPage{
		Docs:       tweets,
		TotalDocs:  total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

func (s *TweetService) UpdateTweet(ctx context.Context, in UpdateTweetInput) (*models.Tweet, error) {
	tweet, err := s.tweetRepo.GetByID(ctx, in.TweetID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(tweet.OwnerID, in.UserID, "update this tweet"); err != nil {
		return nil, err
	}
	content, err := sanitizeTweetContent(in.Content)
	if err != nil {
		return nil, err
	}
	if err := s.tweetRepo.UpdateContent(ctx, tweet.ID, content); err != nil {
		return nil, err
	}
	tweet.Content = content
	return tweet, nil
}

// DeleteTweet removes the tweet with its likes and comments, then its image.
func (s *TweetService) DeleteTweet(ctx context.Context, userID, tweetID uint) error {
	tweet, err := s.tweetRepo.GetByID(ctx, tweetID)
	if err != nil {
		return err
	}
	if err := requireOwner(tweet.OwnerID, userID, "delete this tweet"); err != nil {
		return err
	}
	if err := s.tweetRepo.Delete(ctx, tweetID); err != nil {
		return err
	}
	s.uploader.Remove(ctx, tweet.ImagePublicID)
	return nil
}
