package repository

import (
	"errors"

	"github.com/Baaaki/yamdb/internal/models"

	"gorm.io/gorm"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) CreateComment(comment *models.Comment) error {
	return translate(r.db.Omit("Review", "Author").Create(comment).Error)
}

// GetComment looks the comment up within its review; nil, nil when absent.
func (r *CommentRepository) GetComment(reviewID, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.Preload("Author").
		Where("id = ? AND review_id = ?", commentID, reviewID).
		First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

func (r *CommentRepository) ListComments(reviewID uint, page Page) ([]models.Comment, int64, error) {
	var total int64
	if err := r.db.Model(&models.Comment{}).Where("review_id = ?", reviewID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	err := r.db.Preload("Author").
		Where("review_id = ?", reviewID).
		Order("pub_date DESC, id DESC").
		Scopes(page.Scope).
		Find(&comments).Error
	return comments, total, err
}

func (r *CommentRepository) UpdateCommentText(comment *models.Comment, text string) error {
	err := r.db.Model(&models.Comment{}).Where("id = ?", comment.ID).Update("text", text).Error
	if err != nil {
		return err
	}
	return r.db.Preload("Author").First(comment, comment.ID).Error
}

func (r *CommentRepository) DeleteComment(id uint) error {
	res := r.db.Where("id = ?", id).Delete(&models.Comment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
