package service

import (
	"errors"

	"github.com/Baaaki/yamdb/internal/apperrors"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/rbac"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/validator"
	"github.com/Baaaki/yamdb/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username,notreserved=user"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Bio       string `json:"bio"`
	Role      string `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

// UserPatch is a partial update; nil fields are left untouched.
type UserPatch struct {
	Email     *string `json:"email" validate:"omitnil,required,email,max=254"`
	Username  *string `json:"username" validate:"omitnil,required,max=150,username,notreserved=user"`
	FirstName *string `json:"first_name" validate:"omitnil,max=150"`
	LastName  *string `json:"last_name" validate:"omitnil,max=150"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role" validate:"omitnil,oneof=user moderator admin"`
}

func (p UserPatch) fields() map[string]any {
	fields := make(map[string]any)
	set := func(column string, v *string) {
		if v != nil {
			fields[column] = *v
		}
	}
	set("email", p.Email)
	set("username", p.Username)
	set("first_name", p.FirstName)
	set("last_name", p.LastName)
	set("bio", p.Bio)
	set("role", p.Role)
	return fields
}

type UserService struct {
	userRepo *repository.UserRepository
	validate *validator.Validator
}

func NewUserService(userRepo *repository.UserRepository, validate *validator.Validator) *UserService {
	return &UserService{userRepo: userRepo, validate: validate}
}

func ownerOf(u *models.User) *uuid.UUID {
	if u == nil {
		return nil
	}
	return &u.ID
}

func (s *UserService) List(actor *models.User, search string, page repository.Page) ([]models.User, int64, error) {
	if err := rbac.Check(actor, rbac.ResourceUser, rbac.ActionList, nil); err != nil {
		return nil, 0, err
	}
	return s.userRepo.ListUsers(search, page)
}

func (s *UserService) Create(actor *models.User, in UserInput) (*models.User, error) {
	if err := rbac.Check(actor, rbac.ResourceUser, rbac.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(uuid.Nil, &in.Email, &in.Username); err != nil {
		return nil, err
	}

	role := models.Role(in.Role)
	if role == "" {
		role = models.RoleUser
	}
	user := &models.User{
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
		Role:      role,
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("username", "A user with that username or email already exists.")
		}
		return nil, err
	}

	logger.Log.Info("User created by admin",
		zap.String("user_id", user.ID.String()),
		zap.String("admin_id", actor.ID.String()),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// Get authorizes before reporting absence, so non-admins cannot probe usernames.
func (s *UserService) Get(actor *models.User, username string) (*models.User, error) {
	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if err := rbac.Check(actor, rbac.ResourceUser, rbac.ActionRead, ownerOf(user)); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}
	return user, nil
}

func (s *UserService) Update(actor *models.User, username string, patch UserPatch) (*models.User, error) {
	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if err := rbac.Check(actor, rbac.ResourceUser, rbac.ActionUpdate, ownerOf(user)); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}
	return s.apply(actor, user, patch)
}

func (s *UserService) Delete(actor *models.User, username string) error {
	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		return err
	}
	if err := rbac.Check(actor, rbac.ResourceUser, rbac.ActionDelete, ownerOf(user)); err != nil {
		return err
	}
	if user == nil {
		return apperrors.NotFound("User")
	}
	if err := s.userRepo.DeleteUser(user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("User")
		}
		return err
	}

	logger.Log.Info("User deleted",
		zap.String("user_id", user.ID.String()),
		zap.String("admin_id", actor.ID.String()),
	)
	return nil
}

// Me returns the caller's own record.
func (s *UserService) Me(actor *models.User) (*models.User, error) {
	if err := rbac.Check(actor, rbac.ResourceUser, rbac.ActionRead, ownerOf(actor)); err != nil {
		return nil, err
	}
	return actor, nil
}

// UpdateMe applies a self-service patch. Fields the caller may not write,
// such as role for non-admins, are dropped rather than rejected.
func (s *UserService) UpdateMe(actor *models.User, patch UserPatch) (*models.User, error) {
	if err := rbac.Check(actor, rbac.ResourceUser, rbac.ActionUpdate, ownerOf(actor)); err != nil {
		return nil, err
	}
	return s.apply(actor, actor, patch)
}

func (s *UserService) apply(actor, target *models.User, patch UserPatch) (*models.User, error) {
	if err := s.validate.Validate(patch); err != nil {
		return nil, err
	}

	fields := rbac.WritableFields(actor, rbac.ResourceUser, patch.fields())
	email, _ := fields["email"].(string)
	username, _ := fields["username"].(string)
	if err := s.ensureAvailable(target.ID, optional(email), optional(username)); err != nil {
		return nil, err
	}

	updated, err := s.userRepo.UpdateUser(target.ID, fields)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.Conflict("username", "A user with that username or email already exists.")
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("User")
		}
		return nil, err
	}

	logger.Log.Debug("User updated",
		zap.String("user_id", target.ID.String()),
		zap.String("actor_id", actor.ID.String()),
		zap.Int("fields", len(fields)),
	)
	return updated, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ensureAvailable reports a conflict when email or username belongs to a user other than self.
func (s *UserService) ensureAvailable(self uuid.UUID, email, username *string) error {
	if email != nil {
		other, err := s.userRepo.GetUserByEmail(*email)
		if err != nil {
			return err
		}
		if other != nil && other.ID != self {
			return apperrors.Conflict("email", "A user with this email already exists.")
		}
	}
	if username != nil {
		other, err := s.userRepo.GetUserByUsername(*username)
		if err != nil {
			return err
		}
		if other != nil && other.ID != self {
			return apperrors.Conflict("username", "A user with that username already exists.")
		}
	}
	return nil
}
