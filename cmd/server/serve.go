package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/taskey/taskey-api/internal/config"
	"github.com/taskey/taskey-api/internal/constants"
	"github.com/taskey/taskey-api/internal/database"
	"github.com/taskey/taskey-api/internal/handlers"
	"github.com/taskey/taskey-api/internal/journey"
	"github.com/taskey/taskey-api/internal/metrics"
	"github.com/taskey/taskey-api/internal/middleware"
	"github.com/taskey/taskey-api/internal/realtime"
	"github.com/taskey/taskey-api/internal/repository"
	"github.com/taskey/taskey-api/internal/services"
	"gorm.io/gorm"
)

const hubBuffer = 4

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTPAddr = addr
		}
		skipMigrate, _ := cmd.Flags().GetBool("skip-migrate")
		return serve(cfg, !skipMigrate)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides HTTP_ADDR)")
	serveCmd.Flags().Bool("skip-migrate", false, "do not run migrations on startup")
	rootCmd.AddCommand(serveCmd)
}

func serve(cfg *config.Config, migrate bool) error {
	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}

	// Run migrations
	if migrate {
		if err := database.MigrateDatabase(db); err != nil {
			return err
		}
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize Gin router
	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	handlers.RegisterRoutes(r, buildServices(cfg, db, reg))

	log.Printf("Server starting on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func buildServices(cfg *config.Config, db *gorm.DB, reg *prometheus.Registry) handlers.Services {
	m := metrics.New(reg)
	hub := realtime.NewHub(hubBuffer, m)
	core := services.NewCore(repository.NewStore(db), services.Options{
		StoreTimeout: cfg.StoreTimeout,
		MaxRetries:   cfg.TxMaxRetries,
		Metrics:      m,
		Hub:          hub,
	})

	// Initialize AI recommender
	var recommender services.Recommender
	if cfg.OpenAIAPIKey != "" {
		recommender = services.NewOpenAIRecommender(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		log.Println("OPENAI_API_KEY not set, recommendations disabled")
	}

	threads := services.NewThreadService(core)

	return handlers.Services{
		Auth:            services.NewAuthService(repository.NewUserRepository(db), repository.NewCustomerRepository(db)),
		Tasks:           services.NewTaskService(core),
		Offers:          services.NewOfferService(core, threads),
		Arrival:         services.NewArrivalService(core, threads, cfg.CheckInWindow, cfg.CountdownTick),
		Completion:      services.NewCompletionService(core),
		Helpers:         services.NewHelperService(core, journey.Thresholds{GrowingMinJobs: cfg.GrowingMinJobs}),
		Recommendations: services.NewRecommendationService(core, recommender, cfg.RecommendationTimeout),
		Threads:         threads,
		Hub:             hub,
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}
}

func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.SessionStore {
	case "cookie":
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	case "redis":
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		rs, err := redisStore.NewStore(
			10,        // Redis pool size
			"tcp",     // network type
			redisAddr, // Redis address from config
			"",        // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		store = rs
	default:
		return nil, fmt.Errorf("unsupported SESSION_STORE %q", cfg.SessionStore)
	}

	// Configure session options based on environment
	isProduction := cfg.GinMode == gin.ReleaseMode
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   constants.SessionMaxAge,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
