package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tiroapp/tiro-backend/internal/app/controllers"
	"github.com/tiroapp/tiro-backend/internal/app/models"
	"github.com/tiroapp/tiro-backend/internal/app/models/dto"
	"github.com/tiroapp/tiro-backend/internal/middleware"
	"github.com/tiroapp/tiro-backend/internal/pkg/websocket"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	projectController *controllers.ProjectController,
	proposalController *controllers.ProposalController,
	paymentController *controllers.PaymentController,
	messageController *controllers.MessageController,
	reviewController *controllers.ReviewController,
	studentController *controllers.StudentController,
	wsHandler *websocket.Handler,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
) {
	// API version group
	v1 := router.Group("/api/v1")
	v1.Use(rateLimiter.Middleware())

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
	}

	// Payment gateway webhook (public, verified against the gateway)
	v1.POST("/payments/webhook", paymentController.Webhook)

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/logout", authController.Logout)
		authenticated.GET("/auth/me", authController.Me)

		// Project routes
		projects := authenticated.Group("/projects")
		{
			projects.GET("", projectController.List)
			projects.GET("/:id", projectController.Get)
			projects.GET("/:id/proposals", proposalController.List)
			projects.GET("/:id/reviews", reviewController.ListByProject)

			// Entrepreneur-only routes
			projectsEntrepreneur := projects.Group("")
			projectsEntrepreneur.Use(authMiddleware.RoleRequired(models.RoleEntrepreneur))
			{
				projectsEntrepreneur.POST("", projectController.Create)
				projectsEntrepreneur.POST("/:id/select-student", projectController.SelectStudent)
			}

			// Student-only routes
			projectsStudent := projects.Group("")
			projectsStudent.Use(authMiddleware.RoleRequired(models.RoleStudent))
			{
				projectsStudent.POST("/:id/proposals/response", proposalController.Respond)
			}

			// Admin-only routes, covering the back-office side of the flow
			projectsAdmin := projects.Group("")
			projectsAdmin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
			{
				projectsAdmin.PUT("/:id/quote", projectController.UpdateQuote)
				projectsAdmin.GET("/:id/transitions", projectController.GetTransitions)
				projectsAdmin.POST("/:id/proposals", proposalController.Shortlist)
				projectsAdmin.DELETE("/:id/proposals/:studentId", proposalController.Unshortlist)
				projectsAdmin.POST("/:id/send-proposals", projectController.SendProposals)
				projectsAdmin.POST("/:id/propose", projectController.ProposeToEntrepreneur)
				projectsAdmin.POST("/:id/complete", projectController.Complete)
			}
		}

		// Payment routes (entrepreneur pays)
		payments := authenticated.Group("/payments")
		payments.Use(authMiddleware.RoleRequired(models.RoleEntrepreneur))
		{
			payments.POST("/intent", paymentController.CreateIntent)
			payments.POST("/confirm", paymentController.Confirm)
			payments.POST("/tip", paymentController.Tip)
		}

		// Review routes
		reviews := authenticated.Group("/reviews")
		reviews.Use(authMiddleware.RoleRequired(models.RoleEntrepreneur))
		{
			reviews.POST("", reviewController.Create)
		}

		// Student directory
		students := authenticated.Group("/students")
		{
			students.GET("", studentController.List)
			students.GET("/:id", studentController.Get)
			students.GET("/:id/rating", reviewController.StudentRating)

			studentsSelf := students.Group("")
			studentsSelf.Use(authMiddleware.RoleRequired(models.RoleStudent))
			{
				studentsSelf.GET("/me", studentController.Me)
				studentsSelf.PUT("/me", studentController.UpdateMe)
			}
		}

		// Message routes
		messages := authenticated.Group("/messages")
		{
			messages.GET("/groups", messageController.ListGroups)
			messages.POST("/groups/direct", messageController.CreateDirectGroup)
			messages.GET("/groups/:id", messageController.GetMessages)
			messages.POST("/groups/:id", messageController.Send)
			messages.POST("/groups/:id/read", messageController.MarkRead)
			messages.GET("/groups/:id/ws", wsHandler.HandleConnection)
		}
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, dto.APIResponse{
			Data: gin.H{"status": "ok"},
		})
	})

	// Prometheus metrics (public, scraped internally)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger routes are set up in bootstrap.go already
}
