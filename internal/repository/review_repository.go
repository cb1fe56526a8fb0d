package repository

import (
	"errors"

	"github.com/Baaaki/yamdb/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// CreateReview returns ErrDuplicate when the author already reviewed the title.
func (r *ReviewRepository) CreateReview(review *models.Review) error {
	return translate(r.db.Omit("Title", "Author").Create(review).Error)
}

// GetReview looks the review up within its title; nil, nil when absent.
func (r *ReviewRepository) GetReview(titleID, reviewID uint) (*models.Review, error) {
	var review models.Review
	err := r.db.Preload("Author").
		Where("id = ? AND title_id = ?", reviewID, titleID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepository) HasReviewed(titleID uint, authorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&models.Review{}).
		Where("title_id = ? AND author_id = ?", titleID, authorID).
		Count(&count).Error
	return count > 0, err
}

// ListReviews returns the newest reviews first.
func (r *ReviewRepository) ListReviews(titleID uint, page Page) ([]models.Review, int64, error) {
	var total int64
	if err := r.db.Model(&models.Review{}).Where("title_id = ?", titleID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	err := r.db.Preload("Author").
		Where("title_id = ?", titleID).
		Order("pub_date DESC, score, id DESC").
		Scopes(page.Scope).
		Find(&reviews).Error
	return reviews, total, err
}

func (r *ReviewRepository) UpdateReview(review *models.Review, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.db.Model(&models.Review{}).Where("id = ?", review.ID).Updates(fields).Error
	if err != nil {
		return translate(err)
	}
	return r.db.Preload("Author").First(review, review.ID).Error
}

// DeleteReview removes the review and, by cascade, its comments.
func (r *ReviewRepository) DeleteReview(id uint) error {
	res := r.db.Where("id = ?", id).Delete(&models.Review{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
