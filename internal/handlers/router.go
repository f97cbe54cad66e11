package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskey/taskey-api/internal/middleware"
	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/realtime"
	"github.com/taskey/taskey-api/internal/services"
)

// Services holds what the HTTP layer calls into. MetricsHandler and Hub may
// be nil.
type Services struct {
	Auth            *services.AuthService
	Tasks           *services.TaskService
	Offers          *services.OfferService
	Arrival         *services.ArrivalService
	Completion      *services.CompletionService
	Helpers         *services.HelperService
	Recommendations *services.RecommendationService
	Threads         *services.ThreadService
	Hub             *realtime.Hub
	MetricsHandler  http.Handler
}

// RegisterRoutes mounts the API on r. Session middleware must already be
// installed.
func RegisterRoutes(r *gin.Engine, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	taskHandler := NewTaskHandler(svc.Tasks)
	offerHandler := NewOfferHandler(svc.Offers)
	arrivalHandler := NewArrivalHandler(svc.Arrival)
	completionHandler := NewCompletionHandler(svc.Completion)
	helperHandler := NewHelperHandler(svc.Helpers, svc.Recommendations)
	threadHandler := NewThreadHandler(svc.Threads)
	streamHandler := NewStreamHandler(svc.Tasks, svc.Hub)

	asCustomer := middleware.RequireRole(models.RoleCustomer)
	asHelper := middleware.RequireRole(models.RoleHelper)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Taskey API is running",
		})
	})
	if svc.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(svc.MetricsHandler))
	}

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		api.POST("/session/role", middleware.RequireAuth(), authHandler.SwitchRole)

		// Helper profile routes (protected)
		helpers := api.Group("/helpers")
		helpers.Use(middleware.RequireAuth())
		{
			helpers.POST("/me", helperHandler.Onboard)
			helpers.PUT("/me", helperHandler.UpdateProfile)
			helpers.GET("/me/journey", helperHandler.GetJourney)
			helpers.POST("/me/skill-suggestions", helperHandler.SuggestSkills)
			helpers.GET("/:id", helperHandler.GetPublicProfile)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", asCustomer, taskHandler.CreateTask)
			tasks.GET("/:id", middleware.RequireTaskAccess(svc.Tasks), taskHandler.GetTask)
			tasks.POST("/:id/cancel", asCustomer, taskHandler.CancelTask)
			tasks.GET("/:id/stream", streamHandler.StreamTask)
			tasks.GET("/:id/thread", threadHandler.GetThread)
			tasks.GET("/:id/recommended-helpers", asCustomer, helperHandler.RecommendedHelpers)

			tasks.GET("/:id/offers", offerHandler.ListOffers)
			tasks.POST("/:id/offers", asHelper, offerHandler.SubmitOffer)
			tasks.POST("/:id/offers/:offerId/accept", asCustomer, offerHandler.AcceptOffer)
			tasks.POST("/:id/offers/:offerId/withdraw", asHelper, offerHandler.WithdrawOffer)

			tasks.GET("/:id/arrival", arrivalHandler.GetStatus)
			tasks.GET("/:id/arrival/countdown", arrivalHandler.StreamCountdown)
			tasks.POST("/:id/arrival/check-in", asHelper, arrivalHandler.CheckIn)
			tasks.POST("/:id/arrival/late-start", asHelper, arrivalHandler.RequestLateStart)
			tasks.POST("/:id/arrival/confirm", asCustomer, arrivalHandler.ConfirmArrival)

			tasks.PUT("/:id/checklist", asHelper, completionHandler.ToggleChecklistItem)
			tasks.POST("/:id/complete", asHelper, completionHandler.MarkComplete)
			tasks.POST("/:id/dispute", asCustomer, completionHandler.DisputeCompletion)
			tasks.POST("/:id/feedback", asCustomer, completionHandler.SubmitFeedback)
		}
	}
}
