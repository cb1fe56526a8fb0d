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

const duplicateReviewMessage = "You have already reviewed this title."

type ReviewInput struct {
	Text  string `json:"text" validate:"required"`
	Score *int   `json:"score" validate:"omitnil,min=1,max=10"`
}

type ReviewPatch struct {
	Text  *string `json:"text" validate:"omitnil,required"`
	Score *int    `json:"score" validate:"omitnil,min=1,max=10"`
}

type ReviewService struct {
	reviewRepo *repository.ReviewRepository
	titleRepo  *repository.TitleRepository
	validate   *validator.Validator
	now        func() time.Time
}

func NewReviewService(
	reviewRepo *repository.ReviewRepository,
	titleRepo *repository.TitleRepository,
	validate *validator.Validator,
) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
		validate:   validate,
		now:        time.Now,
	}
}

func (s *ReviewService) requireTitle(titleID uint) error {
	exists, err := s.titleRepo.Exists(titleID)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NotFound("Title")
	}
	return nil
}

func (s *ReviewService) List(titleID uint, page repository.Page) ([]models.Review, int64, error) {
	if err := s.requireTitle(titleID); err != nil {
		return nil, 0, err
	}
	return s.reviewRepo.ListReviews(titleID, page)
}

func (s *ReviewService) Get(titleID, reviewID uint) (*models.Review, error) {
	review, err := s.reviewRepo.GetReview(titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, apperrors.NotFound("Review")
	}
	return review, nil
}

// CheckCanReview reports why actor may not review the title, if anything.
// These checks outrank any complaint about the payload.
func (s *ReviewService) CheckCanReview(actor *models.User, titleID uint) error {
	if err := rbac.Check(actor, rbac.ResourceReview, rbac.ActionCreate, nil); err != nil {
		return err
	}
	if err := s.requireTitle(titleID); err != nil {
		return err
	}

	reviewed, err := s.reviewRepo.HasReviewed(titleID, actor.ID)
	if err != nil {
		return err
	}
	if reviewed {
		return apperrors.Conflict(apperrors.DetailField, duplicateReviewMessage)
	}
	return nil
}

// Create records actor's review of a title. The duplicate check precedes
// payload validation; the unique index on (title, author) settles races.
func (s *ReviewService) Create(actor *models.User, titleID uint, in ReviewInput) (*models.Review, error) {
	if err := s.CheckCanReview(actor, titleID); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: actor.ID,
		Text:     in.Text,
		Score:    in.Score,
		PubDate:  s.now().UTC(),
	}
	if err := s.reviewRepo.CreateReview(review); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			logger.Log.Warn("Concurrent duplicate review rejected",
				zap.Uint("title_id", titleID),
				zap.String("author_id", actor.ID.String()),
			)
			return nil, apperrors.Conflict(apperrors.DetailField, duplicateReviewMessage)
		case errors.Is(err, repository.ErrReferenceNotFound):
			return nil, apperrors.NotFound("Title")
		}
		return nil, err
	}
	review.Author = actor

	logger.Log.Info("Review created",
		zap.Uint("review_id", review.ID),
		zap.Uint("title_id", titleID),
		zap.String("author_id", actor.ID.String()),
	)
	return review, nil
}

func (s *ReviewService) Update(actor *models.User, titleID, reviewID uint, patch ReviewPatch) (*models.Review, error) {
	review, err := s.authorizedReview(actor, titleID, reviewID, rbac.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Validate(patch); err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	if patch.Text != nil {
		fields["text"] = *patch.Text
	}
	if patch.Score != nil {
		fields["score"] = *patch.Score
	}
	if err := s.reviewRepo.UpdateReview(review, fields); err != nil {
		return nil, err
	}
	return review, nil
}

// Delete removes the review and its comments.
func (s *ReviewService) Delete(actor *models.User, titleID, reviewID uint) error {
	review, err := s.authorizedReview(actor, titleID, reviewID, rbac.ActionDelete)
	if err != nil {
		return err
	}
	if err := s.reviewRepo.DeleteReview(review.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Review")
		}
		return err
	}

	logger.Log.Info("Review deleted",
		zap.Uint("review_id", review.ID),
		zap.String("actor_id", actor.ID.String()),
	)
	return nil
}

// authorizedReview loads the review and checks the author/moderator/admin gate.
// Anonymous callers are turned away before the lookup.
func (s *ReviewService) authorizedReview(actor *models.User, titleID, reviewID uint, action rbac.Action) (*models.Review, error) {
	if actor == nil {
		return nil, apperrors.Unauthenticated("")
	}
	review, err := s.Get(titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := rbac.Check(actor, rbac.ResourceReview, action, &review.AuthorID); err != nil {
		logger.Log.Warn("Review change denied",
			zap.Uint("review_id", reviewID),
			zap.String("actor_id", actor.ID.String()),
			zap.String("action", string(action)),
		)
		return nil, err
	}
	return review, nil
}
