package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/internal/database"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/Baaaki/yamdb/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd(connect).Execute(); err != nil {
		os.Exit(1)
	}
}

func connect() (*gorm.DB, error) {
	cfg := config.Load()
	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Printf("Failed to initialize logger: %v", err)
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func newRootCmd(open func() (*gorm.DB, error)) *cobra.Command {
	root := &cobra.Command{
		Use:           "seed",
		Short:         "Administrative tasks for the YaMDB database",
		SilenceUsage: true,
	}
	root.AddCommand(newAdminCmd(open), newRoleCmd(open))
	return root
}

func newAdminCmd(open func() (*gorm.DB, error)) *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Create an admin user, or issue a fresh confirmation code to an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || email == "" {
				return fmt.Errorf("both --username and --email are required (or ADMIN_USERNAME / ADMIN_EMAIL)")
			}
			db, err := open()
			if err != nil {
				return err
			}
			return seedAdmin(repository.NewUserRepository(db), username, email, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&username, "username", os.Getenv("ADMIN_USERNAME"), "admin username")
	cmd.Flags().StringVar(&email, "email", os.Getenv("ADMIN_EMAIL"), "admin email")
	return cmd
}

func newRoleCmd(open func() (*gorm.DB, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "role <username> <user|moderator|admin>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := models.Role(args[1])
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", args[1])
			}
			db, err := open()
			if err != nil {
				return err
			}
			return setRole(repository.NewUserRepository(db), args[0], role, cmd.OutOrStdout())
		},
	}
}

// seedAdmin prints a confirmation code the admin can exchange for a token.
func seedAdmin(repo *repository.UserRepository, username, email string, out io.Writer) error {
	code := utils.NewConfirmationCode()
	hash, err := utils.HashCode(code)
	if err != nil {
		return fmt.Errorf("hash confirmation code: %w", err)
	}

	admin, err := repo.GetUserByUsername(username)
	if err != nil {
		return err
	}

	if admin == nil {
		admin = &models.User{
			Username:             username,
			Email:                email,
			Role:                 models.RoleAdmin,
			IsStaff:              true,
			ConfirmationCodeHash: hash,
		}
		if err := repo.CreateUser(admin); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		logger.Log.Info("Admin user created", zap.String("username", username))
		fmt.Fprintf(out, "Admin %s created.\n", username)
	} else {
		if admin.Email != email {
			return fmt.Errorf("user %s exists with a different email", username)
		}
		if _, err := repo.UpdateUser(admin.ID, map[string]any{"role": models.RoleAdmin, "is_staff": true}); err != nil {
			return err
		}
		if err := repo.SetConfirmationCodeHash(admin.ID, hash); err != nil {
			return err
		}
		logger.Log.Info("Admin confirmation code reissued", zap.String("username", username))
		fmt.Fprintf(out, "Admin %s already exists; issued a new code.\n", username)
	}

	fmt.Fprintf(out, "Confirmation code: %s\n", code)
	return nil
}

func setRole(repo *repository.UserRepository, username string, role models.Role, out io.Writer) error {
	user, err := repo.GetUserByUsername(username)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s not found", username)
	}

	if _, err := repo.UpdateUser(user.ID, map[string]any{
		"role":     role,
		"is_staff": role == models.RoleAdmin,
	}); err != nil {
		return err
	}

	logger.Log.Info("Role changed",
		zap.String("username", username),
		zap.String("role", string(role)),
	)
	fmt.Fprintf(out, "%s is now %s.\n", username, role)
	return nil
}
