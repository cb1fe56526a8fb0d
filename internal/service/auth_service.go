package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Baaaki/yamdb/internal/apperrors"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/notify"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/Baaaki/yamdb/internal/validator"
	"github.com/Baaaki/yamdb/pkg/logger"

	"go.uber.org/zap"
)

const ConfirmationSubject = "YaMDB confirmation code"

func confirmationBody(code string) string {
	return fmt.Sprintf("Hello!\n\nYour confirmation code: %s\n", code)
}

type SignupInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,max=150,username,notreserved=user"`
}

type TokenInput struct {
	Username         string `json:"username" validate:"required,max=150"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

type AuthOptions struct {
	// SingleUseCodes clears the confirmation code after a successful exchange.
	SingleUseCodes bool
}

type AuthService struct {
	userRepo *repository.UserRepository
	notifier notify.Notifier
	tokens   *utils.TokenIssuer
	validate *validator.Validator
	opts     AuthOptions
}

func NewAuthService(
	userRepo *repository.UserRepository,
	notifier notify.Notifier,
	tokens *utils.TokenIssuer,
	validate *validator.Validator,
	opts AuthOptions,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		notifier: notifier,
		tokens:   tokens,
		validate: validate,
		opts:     opts,
	}
}

// Register creates an unconfirmed user, or refreshes the code of an existing
// user with the same email and username, and mails the new confirmation code.
// Nothing is persisted if the mail cannot be delivered.
func (s *AuthService) Register(in SignupInput) (*models.User, error) {
	start := time.Now()

	logger.Log.Debug("Processing signup",
		zap.String("username", in.Username),
		zap.String("email", in.Email),
	)

	if err := s.validate.Validate(in); err != nil {
		logger.Log.Warn("Signup validation failed",
			zap.String("username", in.Username),
			zap.Error(err),
		)
		return nil, err
	}

	var registered *models.User
	err := s.userRepo.Transaction(func(repo *repository.UserRepository) error {
		existing, err := repo.FindByEmailOrUsername(in.Email, in.Username)
		if err != nil {
			return err
		}
		user, err := matchSignup(existing, in)
		if err != nil {
			return err
		}

		code := utils.NewConfirmationCode()
		hash, err := utils.HashCode(code)
		if err != nil {
			return err
		}

		if user == nil {
			user = &models.User{
				Email:                in.Email,
				Username:             in.Username,
				Role:                 models.RoleUser,
				ConfirmationCodeHash: hash,
			}
			if err := repo.CreateUser(user); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return apperrors.Conflict("username", "A user with that username or email already exists.")
				}
				return err
			}
		} else if err := repo.SetConfirmationCodeHash(user.ID, hash); err != nil {
			return err
		}

		if err := s.notifier.Send(user.Email, ConfirmationSubject, confirmationBody(code)); err != nil {
			return fmt.Errorf("deliver confirmation code: %w", err)
		}

		registered = user
		return nil
	})
	if err != nil {
		if apperrors.KindOf(err) != "" {
			logger.Log.Warn("Signup rejected",
				zap.String("username", in.Username),
				zap.String("email", in.Email),
				zap.Error(err),
			)
		} else {
			logger.Log.Error("Signup failed",
				zap.String("username", in.Username),
				zap.Error(err),
			)
		}
		return nil, err
	}

	logger.Log.Info("Confirmation code issued",
		zap.String("user_id", registered.ID.String()),
		zap.String("username", registered.Username),
		zap.Duration("total_duration", time.Since(start)),
	)

	return registered, nil
}

// matchSignup returns the user to re-issue a code for, nil for a new user,
// or a conflict when the email and username belong to different identities.
func matchSignup(existing []models.User, in SignupInput) (*models.User, error) {
	for i := range existing {
		if existing[i].Email == in.Email && existing[i].Username == in.Username {
			return &existing[i], nil
		}
	}
	for _, u := range existing {
		if u.Email == in.Email {
			return nil, apperrors.Conflict("email", "A user with this email already exists.")
		}
	}
	if len(existing) > 0 {
		return nil, apperrors.Conflict("username", "A user with that username already exists.")
	}
	return nil, nil
}

// Exchange trades a username and confirmation code for an access token.
func (s *AuthService) Exchange(in TokenInput) (string, error) {
	if err := s.validate.Validate(in); err != nil {
		return "", err
	}

	user, err := s.userRepo.GetUserByUsername(in.Username)
	if err != nil {
		logger.Log.Error("Failed to get user by username",
			zap.String("username", in.Username),
			zap.Error(err),
		)
		return "", err
	}
	if user == nil {
		logger.Log.Warn("Token exchange for unknown user", zap.String("username", in.Username))
		return "", apperrors.NotFound("User")
	}

	invalid := apperrors.InvalidCredentials("confirmation_code", "Invalid confirmation code.")
	if user.ConfirmationCodeHash == "" {
		logger.Log.Warn("Token exchange without outstanding code", zap.String("user_id", user.ID.String()))
		return "", invalid
	}

	valid, err := utils.VerifyCode(in.ConfirmationCode, user.ConfirmationCodeHash)
	if err != nil {
		logger.Log.Error("Stored confirmation code hash is unreadable",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return "", err
	}
	if !valid {
		logger.Log.Warn("Token exchange with wrong code", zap.String("user_id", user.ID.String()))
		return "", invalid
	}

	if s.opts.SingleUseCodes {
		consumed, err := s.userRepo.ConsumeConfirmationCode(user.ID, user.ConfirmationCodeHash)
		if err != nil {
			return "", err
		}
		if !consumed {
			return "", invalid
		}
	}

	token, err := s.tokens.Mint(user)
	if err != nil {
		logger.Log.Error("Failed to mint token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return "", err
	}

	logger.Log.Info("Token issued",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)

	return token, nil
}

// Authenticate resolves a bearer token to the current state of its user.
func (s *AuthService) Authenticate(token string) (*models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperrors.Unauthenticated("Given token not valid for any token type.")
	}

	user, err := s.userRepo.GetUserByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.Unauthenticated("User not found.")
	}
	return user, nil
}
