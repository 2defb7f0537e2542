package service

import (
	"context"

	"tubbit/internal/models"
	"tubbit/internal/notifications"
	"tubbit/internal/repository"
	"tubbit/internal/validation"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	likeRepo    repository.LikeRepository
	notifier    EventNotifier
}

type CreateCommentInput struct {
	UserID  uint
	Target  models.Target
	Content string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	likeRepo repository.LikeRepository,
	notifier EventNotifier,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		likeRepo:    likeRepo,
		notifier:    notifierOrNoop(notifier),
	}
}

func cleanCommentContent(content string) (string, error) {
	content = validation.SanitizePlain(content)
	if content == "" {
		return "", models.NewValidationError("Content is required")
	}
	if len([]rune(content)) > maxCommentLen {
		return "", models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return content, nil
}

// commentableOwner checks that target accepts comments and exists, and returns its owner.
func (s *CommentService) commentableOwner(ctx context.Context, target models.Target) (uint, error) {
	if err := target.Validate(); err != nil {
		return 0, err
	}
	if !target.Commentable() {
		return 0, models.NewValidationError("Comments can only be added to videos and tweets")
	}
	ownerID, found, err := s.likeRepo.TargetOwner(ctx, target)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, models.NewNotFoundError(kindLabel(target.Kind), target.ID)
	}
	return ownerID, nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	ownerID, err := s.commentableOwner(ctx, in.Target)
	if err != nil {
		return nil, err
	}
	content, err := cleanCommentContent(in.Content)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content:    content,
		OwnerID:    in.UserID,
		TargetType: in.Target.Kind,
		TargetID:   in.Target.ID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, ownerID, notifications.Commented(in.UserID, in.Target, comment.ID))
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// ListComments pages through the comments on a video or tweet, newest first.
func (s *CommentService) ListComments(ctx context.Context, target models.Target, page, limit int) (*models.CommentPage, error) {
	if _, err := s.commentableOwner(ctx, target); err != nil {
		return nil, err
	}
	page, limit = pageParams(page, limit)
	comments, total, err := s.commentRepo.ListByTarget(ctx, target, page, limit)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return &models.CommentPage{
		Docs:       comments,
		TotalDocs:  total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(comment.OwnerID, in.UserID, "update this comment"); err != nil {
		return nil, err
	}
	content, err := cleanCommentContent(in.Content)
	if err != nil {
		return nil, err
	}
	if err := s.commentRepo.UpdateContent(ctx, comment.ID, content); err != nil {
		return nil, err
	}
	comment.Content = content
	return comment, nil
}

// DeleteComment removes the comment and the likes on it.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if err := requireOwner(comment.OwnerID, userID, "delete this comment"); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, commentID)
}
