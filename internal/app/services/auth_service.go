package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/tiroapp/tiro-backend/internal/app/models"
	"github.com/tiroapp/tiro-backend/internal/app/models/dto"
	"github.com/tiroapp/tiro-backend/internal/app/repositories"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
	"github.com/tiroapp/tiro-backend/internal/pkg/auth"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// AuthService handles registration, login and refresh token rotation
type AuthService struct {
	tx               TxRunner
	userRepo         *repositories.UserRepository
	studentRepo      *repositories.StudentRepository
	entrepreneurRepo *repositories.EntrepreneurRepository
	tokenRepo        *repositories.TokenRepository
	jwtService       *auth.JWTService
	logger           zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	tx TxRunner,
	userRepo *repositories.UserRepository,
	studentRepo *repositories.StudentRepository,
	entrepreneurRepo *repositories.EntrepreneurRepository,
	tokenRepo *repositories.TokenRepository,
	jwtService *auth.JWTService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		tx:               tx,
		userRepo:         userRepo,
		studentRepo:      studentRepo,
		entrepreneurRepo: entrepreneurRepo,
		tokenRepo:        tokenRepo,
		jwtService:       jwtService,
		logger:           logger,
	}
}

func (s *AuthService) validateRegistration(req dto.RegisterRequest) error {
	if !emailRegex.MatchString(strings.TrimSpace(req.Email)) {
		return fmt.Errorf("%w: invalid email format", apperrors.ErrValidationFailed)
	}
	if len(req.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters long", apperrors.ErrValidationFailed)
	}
	role := models.RoleType(req.RoleType)
	if role != models.RoleEntrepreneur && role != models.RoleStudent {
		return fmt.Errorf("%w: role must be ENTREPRENEUR or STUDENT", apperrors.ErrValidationFailed)
	}
	return nil
}

// Register creates a user account with its role profile and returns a
// token pair
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.TokenResponse, *models.User, error) {
	if err := s.validateRegistration(req); err != nil {
		return nil, nil, err
	}

	exists, err := s.userRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, apperrors.ErrEmailAlreadyExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		RoleType:     models.RoleType(req.RoleType),
		IsActive:     true,
	}

	// User and profile row commit together.
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := s.userRepo.CreateTx(ctx, tx, user); err != nil {
			return err
		}

		switch user.RoleType {
		case models.RoleStudent:
			student := &models.Student{
				UserID:    user.ID,
				School:    req.School,
				Specialty: req.Specialty,
				Skills:    req.Skills,
			}
			return s.studentRepo.CreateTx(ctx, tx, student)
		case models.RoleEntrepreneur:
			entrepreneur := &models.Entrepreneur{
				UserID:      user.ID,
				CompanyName: req.CompanyName,
				CompanyRole: req.CompanyRole,
			}
			return s.entrepreneurRepo.CreateTx(ctx, tx, entrepreneur)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.RoleType)).Msg("User registered")

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

// Login verifies credentials and returns a token pair
func (s *AuthService) Login(ctx context.Context, email, password string) (*dto.TokenResponse, *models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Not-found collapses into invalid credentials so the endpoint does
		// not leak which emails exist.
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, apperrors.ErrAccountDisabled
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

// RefreshToken rotates a refresh token into a fresh token pair
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	userID, err := s.tokenRepo.GetUserID(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	// Rotation: the old token dies with the exchange.
	if err := s.tokenRepo.Revoke(ctx, refreshToken); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokenRepo.Revoke(ctx, refreshToken)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	accessToken, refreshToken, expiresIn, refreshExpiresIn, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("error generating tokens: %w", err)
	}

	if err := s.tokenRepo.Create(ctx, refreshToken, user.ID, s.jwtService.GetRefreshTokenExpiry()); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresIn:        expiresIn,
		RefreshExpiresIn: refreshExpiresIn,
		TokenType:        "Bearer",
	}, nil
}
