// Package bootstrap assembles configuration, storage and the dependency
// graph of the application.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/tiroapp/tiro-backend/docs" // Import generated swagger docs
	appControllers "github.com/tiroapp/tiro-backend/internal/app/controllers"
	appMigrations "github.com/tiroapp/tiro-backend/internal/app/migrations"
	appRepos "github.com/tiroapp/tiro-backend/internal/app/repositories"
	appRoutes "github.com/tiroapp/tiro-backend/internal/app/routes"
	appServices "github.com/tiroapp/tiro-backend/internal/app/services"
	"github.com/tiroapp/tiro-backend/internal/config"
	"github.com/tiroapp/tiro-backend/internal/db"
	appMiddleware "github.com/tiroapp/tiro-backend/internal/middleware"
	pkgAuth "github.com/tiroapp/tiro-backend/internal/pkg/auth"
	"github.com/tiroapp/tiro-backend/internal/pkg/email"
	"github.com/tiroapp/tiro-backend/internal/pkg/gateway"
	"github.com/tiroapp/tiro-backend/internal/pkg/helpers"
	"github.com/tiroapp/tiro-backend/internal/pkg/logger"
	"github.com/tiroapp/tiro-backend/internal/pkg/websocket"
	"github.com/tiroapp/tiro-backend/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService         *appServices.AuthService
	ProjectService      *appServices.ProjectService
	ProposalService     *appServices.ProposalService
	LifecycleService    appServices.LifecycleService
	AvailabilityService appServices.AvailabilityService
	PaymentService      appServices.PaymentService
	MessageService      *appServices.MessageService
	ReviewService       *appServices.ReviewService
	StudentService      *appServices.StudentService

	AuthController     *appControllers.AuthController
	ProjectController  *appControllers.ProjectController
	ProposalController *appControllers.ProposalController
	PaymentController  *appControllers.PaymentController
	MessageController  *appControllers.MessageController
	ReviewController   *appControllers.ReviewController
	StudentController  *appControllers.StudentController

	AuthMiddleware *appMiddleware.AuthMiddleware
	RateLimiter    *appMiddleware.RateLimiter
	Repos          *appRepos.Repositories
	JWTService     *pkgAuth.JWTService
	EmailService   email.EmailService
	GatewayClient  gateway.Client
	Hub            *websocket.Hub
	WSHandler      *websocket.Handler
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds the system account. Returns the pool and the system user's ID.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, int64, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, 0, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool, lgr)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		dbPool.Close()
		return nil, 0, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, 0, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	// The system account signs lifecycle announcements, so startup fails
	// without it.
	systemUserID, err := seed.EnsureSystemUser(ctx, dbPool, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to seed system user")
		dbPool.Close()
		return nil, 0, fmt.Errorf("seeding system user failed: %w", err)
	}

	return dbPool, systemUserID, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, systemUserID int64, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)
	txRunner := &db.PostgresDB{Pool: dbPool}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.EmailService = email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
	}, lgr)

	deps.GatewayClient = gateway.NewClient(gateway.Config{
		BaseURL:   cfg.Gateway.BaseURL,
		SecretKey: cfg.Gateway.SecretKey,
	}, lgr)

	deps.Hub = websocket.NewHub(lgr)
	go deps.Hub.Run()

	deps.AuthService = appServices.NewAuthService(
		txRunner,
		deps.Repos.UserRepository,
		deps.Repos.StudentRepository,
		deps.Repos.EntrepreneurRepository,
		deps.Repos.TokenRepository,
		deps.JWTService,
		lgr,
	)

	deps.AvailabilityService = appServices.NewAvailabilityService(
		txRunner,
		deps.Repos.StudentRepository,
		lgr,
	)

	deps.LifecycleService = appServices.NewLifecycleService(
		txRunner,
		deps.Repos.ProjectRepository,
		deps.Repos.StudentRepository,
		deps.Repos.EntrepreneurRepository,
		deps.Repos.ProposalRepository,
		deps.Repos.MessageRepository,
		deps.Repos.TransitionRepository,
		deps.Repos.InvoiceRepository,
		deps.AvailabilityService,
		deps.EmailService,
		systemUserID,
		lgr,
	)

	deps.PaymentService = appServices.NewPaymentService(
		deps.Repos.ProjectRepository,
		deps.Repos.EntrepreneurRepository,
		deps.GatewayClient,
		deps.LifecycleService,
		appServices.PaymentConfig{
			Currency:   cfg.Gateway.Currency,
			SuccessURL: cfg.Gateway.SuccessURL,
			CancelURL:  cfg.Gateway.CancelURL,
		},
		lgr,
	)

	deps.ProjectService = appServices.NewProjectService(
		txRunner,
		deps.Repos.ProjectRepository,
		deps.Repos.EntrepreneurRepository,
		deps.Repos.StudentRepository,
		deps.Repos.MessageRepository,
		deps.Repos.TransitionRepository,
		systemUserID,
		lgr,
	)

	deps.ProposalService = appServices.NewProposalService(
		txRunner,
		deps.Repos.ProposalRepository,
		deps.Repos.ProjectRepository,
		deps.Repos.StudentRepository,
		deps.EmailService,
		lgr,
	)

	deps.MessageService = appServices.NewMessageService(
		txRunner,
		deps.Repos.MessageRepository,
		deps.Repos.UserRepository,
		deps.Hub,
		lgr,
	)

	deps.ReviewService = appServices.NewReviewService(
		deps.Repos.ReviewRepository,
		deps.Repos.ProjectRepository,
		deps.Repos.EntrepreneurRepository,
		lgr,
	)

	deps.StudentService = appServices.NewStudentService(deps.Repos.StudentRepository, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.Repos.UserRepository)
	deps.RateLimiter = appMiddleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	deps.WSHandler = websocket.NewHandler(deps.Hub, deps.MessageService, lgr)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, deps.Repos.UserRepository, lgr)
	deps.ProjectController = appControllers.NewProjectController(deps.ProjectService, deps.LifecycleService, deps.AuthMiddleware, lgr)
	deps.ProposalController = appControllers.NewProposalController(deps.ProposalService, lgr)
	deps.PaymentController = appControllers.NewPaymentController(deps.PaymentService, lgr)
	deps.MessageController = appControllers.NewMessageController(deps.MessageService, lgr)
	deps.ReviewController = appControllers.NewReviewController(deps.ReviewService, lgr)
	deps.StudentController = appControllers.NewStudentController(deps.StudentService, lgr)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.Default()

	// Setup Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json"), ginSwagger.DefaultModelsExpandDepth(1)))

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.ProjectController,
		deps.ProposalController,
		deps.PaymentController,
		deps.MessageController,
		deps.ReviewController,
		deps.StudentController,
		deps.WSHandler,
		deps.AuthMiddleware,
		deps.RateLimiter,
	)

	return router
}
