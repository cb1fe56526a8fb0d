package repository

import (
	"errors"

	"github.com/Baaaki/yamdb/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Transaction runs fn against a repository bound to a single transaction.
func (r *UserRepository) Transaction(fn func(repo *UserRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&UserRepository{db: tx})
	})
}

func (r *UserRepository) CreateUser(user *models.User) error {
	return translate(r.db.Create(user).Error)
}

func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	return r.first("email = ?", email)
}

func (r *UserRepository) GetUserByUsername(username string) (*models.User, error) {
	return r.first("username = ?", username)
}

func (r *UserRepository) GetUserByID(id uuid.UUID) (*models.User, error) {
	return r.first("id = ?", id)
}

// first returns nil, nil when nothing matches.
func (r *UserRepository) first(query string, args ...any) (*models.User, error) {
	var user models.User
	err := r.db.Where(query, args...).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmailOrUsername returns every user holding either identifier.
func (r *UserRepository) FindByEmailOrUsername(email, username string) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("email = ? OR username = ?", email, username).Find(&users).Error
	return users, err
}

// ListUsers filters by a case-insensitive username substring.
func (r *UserRepository) ListUsers(search string, page Page) ([]models.User, int64, error) {
	query := func() *gorm.DB {
		q := r.db.Model(&models.User{})
		if search != "" {
			q = q.Where(`LOWER(username) LIKE ? ESCAPE '\'`, containsPattern(search))
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := query().Order("username").Scopes(page.Scope).Find(&users).Error
	return users, total, err
}

// UpdateUser writes the given columns and reloads the user.
func (r *UserRepository) UpdateUser(id uuid.UUID, fields map[string]any) (*models.User, error) {
	if len(fields) > 0 {
		res := r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields)
		if err := translate(res.Error); err != nil {
			return nil, err
		}
	}
	user, err := r.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) SetConfirmationCodeHash(id uuid.UUID, hash string) error {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Update("confirmation_code_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the user; reviews and comments go with it.
func (r *UserRepository) DeleteUser(id uuid.UUID) error {
	res := r.db.Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeConfirmationCode clears the stored hash only if it still equals hash,
// so a code can be spent once even under concurrent exchanges.
func (r *UserRepository) ConsumeConfirmationCode(id uuid.UUID, hash string) (bool, error) {
	res := r.db.Model(&models.User{}).
		Where("id = ? AND confirmation_code_hash = ?", id, hash).
		Update("confirmation_code_hash", "")
	return res.RowsAffected == 1, res.Error
}
