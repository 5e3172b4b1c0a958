// Package cli holds the pgctl administration commands.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"pg-manager/config"
	"pg-manager/database"
	"pg-manager/internal/logging"
	"pg-manager/internal/models"
	"pg-manager/internal/stores"
	"pg-manager/internal/user"
)

var ErrWeakPassword = fmt.Errorf("password must be at least %d characters", user.MinPasswordLength)

func connect() (*gorm.DB, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.LogLevel, cfg.IsProduction())
	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	return db, logger, nil
}

func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := connect()
			if err != nil {
				return err
			}
			if err := database.ProcessMigrations(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}
}

func CreateAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			db, _, err := connect()
			if err != nil {
				return err
			}
			u, err := BootstrapAdmin(cmd.Context(), db, user.BcryptHasher{}, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created (id %d).\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().String("email", "", "admin email address")
	cmd.Flags().String("password", "", "admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// BootstrapAdmin brings the schema up to date, then creates the admin, so it
// works against an empty database.
func BootstrapAdmin(ctx context.Context, db *gorm.DB, hasher user.PasswordHasher, email, password string) (*models.User, error) {
	if err := database.ProcessMigrations(db); err != nil {
		return nil, err
	}
	return CreateAdmin(ctx, &stores.GormUserStore{DB: db}, hasher, email, password)
}

// CreateAdmin stores a new active admin user. The email is lowercased.
func CreateAdmin(ctx context.Context, users stores.UserStore, hasher user.PasswordHasher, email, password string) (*models.User, error) {
	email, err := user.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < user.MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := hasher.Hash([]byte(password))
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, stores.ErrDuplicate) {
			return nil, fmt.Errorf("user %s already exists", email)
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return u, nil
}
