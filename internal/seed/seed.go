// Package seed creates the default rows the application needs at startup.
package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	appModels "github.com/tiroapp/tiro-backend/internal/app/models"
	appRepos "github.com/tiroapp/tiro-backend/internal/app/repositories"
	"github.com/tiroapp/tiro-backend/internal/config"
	"github.com/tiroapp/tiro-backend/internal/db"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
	"github.com/tiroapp/tiro-backend/internal/pkg/auth"
)

// systemEmail identifies the back-office account. It signs the lifecycle
// announcements posted into project message groups, so it must exist
// before the first transition runs.
const systemEmail = "system@tiro.app"

// EnsureSystemUser creates the default admin account if it does not exist
// and returns its user ID.
func EnsureSystemUser(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) (int64, error) {
	userRepo := appRepos.NewUserRepository(dbPool)

	existing, err := userRepo.GetByEmail(ctx, systemEmail)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return 0, err
	}

	lgr.Info().Str("email", systemEmail).Msg("Creating default admin user")

	password := config.GetEnv("SEED_ADMIN_PASSWORD", "ChangeMe123!")
	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}

	user := &appModels.User{
		Email:        systemEmail,
		PasswordHash: hash,
		FirstName:    "Tiro",
		LastName:     "Admin",
		RoleType:     appModels.RoleAdmin,
		IsActive:     true,
	}

	var userID int64
	err = db.WithTransaction(ctx, dbPool, func(ctx context.Context, tx pgx.Tx) error {
		id, err := userRepo.CreateTx(ctx, tx, user)
		if err != nil {
			return err
		}
		userID = id
		return nil
	})
	if err != nil {
		// A concurrent boot may have won the race.
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			if existing, getErr := userRepo.GetByEmail(ctx, systemEmail); getErr == nil {
				return existing.ID, nil
			}
		}
		return 0, err
	}

	lgr.Info().Int64("userID", userID).Msg("Default admin user created")
	return userID, nil
}
