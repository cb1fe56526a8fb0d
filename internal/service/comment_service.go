package service

import (
	"errors"
	"time"

	"github.com/Baaaki/yamdb/internal/apperrors"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/rbac"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/validator"
	"github.com/Baaaki/yamdb/pkg/logger"

	"go.uber.org/zap"
)

type CommentInput struct {
	Text string `json:"text" validate:"required"`
}

type CommentService struct {
	commentRepo *repository.CommentRepository
	reviewRepo  *repository.ReviewRepository
	validate    *validator.Validator
	now         func() time.Time
}

func NewCommentService(
	commentRepo *repository.CommentRepository,
	reviewRepo *repository.ReviewRepository,
	validate *validator.Validator,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
		validate:    validate,
		now:         time.Now,
	}
}

// requireReview checks that the review exists under the given title.
func (s *CommentService) requireReview(titleID, reviewID uint) error {
	review, err := s.reviewRepo.GetReview(titleID, reviewID)
	if err != nil {
		return err
	}
	if review == nil {
		return apperrors.NotFound("Review")
	}
	return nil
}

func (s *CommentService) List(titleID, reviewID uint, page repository.Page) ([]models.Comment, int64, error) {
	if err := s.requireReview(titleID, reviewID); err != nil {
		return nil, 0, err
	}
	return s.commentRepo.ListComments(reviewID, page)
}

func (s *CommentService) Get(titleID, reviewID, commentID uint) (*models.Comment, error) {
	if err := s.requireReview(titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetComment(reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, apperrors.NotFound("Comment")
	}
	return comment, nil
}

func (s *CommentService) Create(actor *models.User, titleID, reviewID uint, in CommentInput) (*models.Comment, error) {
	if err := rbac.Check(actor, rbac.ResourceComment, rbac.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := s.requireReview(titleID, reviewID); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		AuthorID: actor.ID,
		Text:     in.Text,
		PubDate:  s.now().UTC(),
	}
	if err := s.commentRepo.CreateComment(comment); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, apperrors.NotFound("Review")
		}
		return nil, err
	}
	comment.Author = actor

	logger.Log.Debug("Comment created",
		zap.Uint("comment_id", comment.ID),
		zap.Uint("review_id", reviewID),
	)
	return comment, nil
}

func (s *CommentService) Update(actor *models.User, titleID, reviewID, commentID uint, in CommentInput) (*models.Comment, error) {
	comment, err := s.authorizedComment(actor, titleID, reviewID, commentID, rbac.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	if err := s.commentRepo.UpdateCommentText(comment, in.Text); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) Delete(actor *models.User, titleID, reviewID, commentID uint) error {
	comment, err := s.authorizedComment(actor, titleID, reviewID, commentID, rbac.ActionDelete)
	if err != nil {
		return err
	}
	if err := s.commentRepo.DeleteComment(comment.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Comment")
		}
		return err
	}
	return nil
}

func (s *CommentService) authorizedComment(actor *models.User, titleID, reviewID, commentID uint, action rbac.Action) (*models.Comment, error) {
	if actor == nil {
		return nil, apperrors.Unauthenticated("")
	}
	comment, err := s.Get(titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := rbac.Check(actor, rbac.ResourceComment, action, &comment.AuthorID); err != nil {
		return nil, err
	}
	return comment, nil
}
