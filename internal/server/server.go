package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"elderlink/internal/billing"
	"elderlink/internal/config"
	"elderlink/internal/database"
	"elderlink/internal/handlers"
	"elderlink/internal/jobs"
	"elderlink/internal/mailer"
	"elderlink/internal/middlewares"
	"elderlink/internal/models"
	"elderlink/internal/repositories"
	"elderlink/internal/routes"
	"elderlink/internal/services"
	"elderlink/internal/utils"
	"elderlink/internal/ws"
	"elderlink/internal/zoom"
)

type Server struct {
	HTTP *http.Server

	pool      *pgxpool.Pool
	rdb       *redis.Client
	scheduler *jobs.Scheduler
	stopHub   context.CancelFunc
}

func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := database.EnsureDatabaseExists(ctx, cfg); err != nil {
		return nil, err
	}
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	gormDB, err := database.OpenGorm(pool, !cfg.IsProduction() && cfg.LogLevel == "debug")
	if err != nil {
		pool.Close()
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	// Test Redis connection and fail fast with a clear message
	{
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		log.Info("Connected to Redis successfully")
	}

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	sessionRepo := repositories.NewSessionRepository(gormDB)
	redisRepo := repositories.NewRedisRepository(rdb)
	doctorRepo := repositories.NewDoctorRepository(pool)
	elderRepo := repositories.NewElderRepository(pool)
	assignmentRepo := repositories.NewAssignmentRepository(pool)
	appointmentRepo := repositories.NewAppointmentRepository(pool)
	prescriptionRepo := repositories.NewPrescriptionRepository(pool)
	inventoryRepo := repositories.NewInventoryRepository(pool)
	notificationRepo := repositories.NewNotificationRepository(pool)
	emergencyRepo := repositories.NewEmergencyRepository(pool)
	subscriptionRepo := repositories.NewSubscriptionRepository(pool)
	statsRepo := repositories.NewStatsRepository(pool)

	// Live events
	hub := ws.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	// Optional integrations stay nil interfaces when unconfigured.
	var meetings services.MeetingScheduler
	if zc := config.ZoomOAuthConfig(cfg); zc != nil {
		meetings = zoom.NewClient(zc)
	} else {
		log.Warn("Zoom is not configured, confirmed appointments will have no meeting link")
	}
	var gateway services.BillingGateway
	if cfg.StripeEnabled() {
		gateway = billing.NewStripeGateway(billing.Config{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			Prices: map[models.PlanCode]string{
				models.PlanBasic:   cfg.StripePriceBasic,
				models.PlanPremium: cfg.StripePricePremium,
			},
			SuccessURL: cfg.CheckoutSuccessURL,
			CancelURL:  cfg.CheckoutCancelURL,
		})
	} else if cfg.StripeSecretKey != "" {
		log.Warn("STRIPE_WEBHOOK_SECRET is not set, checkout is disabled")
	} else {
		log.Warn("Stripe is not configured, checkout is disabled")
	}
	mail := mailer.New(cfg)

	// Services
	tokens := utils.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret)
	authService := services.NewAuthService(userRepo, sessionRepo, redisRepo, tokens)
	googleService := services.NewGoogleAuthService(config.OAuthConfig(cfg), userRepo, authService)
	userService := services.NewUserService(userRepo, sessionRepo)
	notificationService := services.NewNotificationService(notificationRepo, hub)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, userRepo, gateway, notificationService)
	doctorService := services.NewDoctorService(doctorRepo)
	elderService := services.NewElderService(elderRepo, assignmentRepo, subscriptionService, cfg.SubscriptionRequired)
	assignmentService := services.NewAssignmentService(assignmentRepo, userRepo, notificationService)
	appointmentService := services.NewAppointmentService(services.AppointmentDeps{
		Appointments:         appointmentRepo,
		Elders:               elderRepo,
		Assignments:          assignmentRepo,
		Users:                userRepo,
		Notifier:             notificationService,
		Meetings:             meetings,
		Mailer:               mail,
		Entitlements:         subscriptionService,
		SubscriptionRequired: cfg.SubscriptionRequired,
	})
	inventoryService := services.NewInventoryService(inventoryRepo, notificationService)
	prescriptionService := services.NewPrescriptionService(services.PrescriptionDeps{
		Prescriptions: prescriptionRepo,
		Elders:        elderRepo,
		Assignments:   assignmentRepo,
		Appointments:  appointmentRepo,
		Inventory:     inventoryRepo,
		Notifier:      notificationService,
	})
	emergencyService := services.NewEmergencyService(services.EmergencyDeps{
		Emergencies: emergencyRepo,
		Elders:      elderRepo,
		Assignments: assignmentRepo,
		Users:       userRepo,
		Notifier:    notificationService,
		Mailer:      mail,
	})
	statsService := services.NewStatsService(statsRepo, prescriptionRepo, inventoryRepo, redisRepo)

	// Handlers
	if err := handlers.RegisterValidators(); err != nil {
		stopHub()
		pool.Close()
		return nil, err
	}
	authHandler := handlers.NewAuthHandler(authService, cfg.IsProduction())
	h := routes.Handlers{
		Auth:         authHandler,
		Google:       handlers.NewGoogleAuthHandler(googleService, authHandler),
		User:         handlers.NewUserHandler(userService),
		Doctor:       handlers.NewDoctorHandler(doctorService),
		Elder:        handlers.NewElderHandler(elderService),
		Assignment:   handlers.NewAssignmentHandler(assignmentService),
		Appointment:  handlers.NewAppointmentHandler(appointmentService),
		Prescription: handlers.NewPrescriptionHandler(prescriptionService),
		Inventory:    handlers.NewInventoryHandler(inventoryService),
		Notification: handlers.NewNotificationHandler(notificationService),
		Emergency:    handlers.NewEmergencyHandler(emergencyService),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService),
		Stats:        handlers.NewStatsHandler(statsService),
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"database": pool,
			"redis":    redisRepo,
		}),
		WebSocket: ws.ServeWS(hub, authService, cfg.CORSOrigins),
	}
	g := routes.Guards{
		Authenticate:       middlewares.Authenticate(authService),
		ActiveSubscription: middlewares.RequireActiveSubscription(subscriptionService, cfg.SubscriptionRequired),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middlewares.RequestLogger(), gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	routes.RegisterRoutes(router, h, g)

	s := &Server{
		pool:    pool,
		rdb:     rdb,
		stopHub: stopHub,
	}

	if cfg.JobsEnabled {
		s.scheduler = jobs.NewScheduler()
		err := jobs.Register(s.scheduler, jobs.Services{
			Reminders:     appointmentService,
			Subscriptions: subscriptionService,
			Digests:       inventoryService,
			Sessions:      authService,
		})
		if err != nil {
			stopHub()
			pool.Close()
			return nil, err
		}
	}

	// Create and configure the HTTP server
	s.HTTP = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s, nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		// Credentials cannot be combined with a literal wildcard origin.
		c.AllowOriginFunc = func(string) bool { return true }
	} else {
		c.AllowOrigins = origins
	}
	return c
}

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	if s.scheduler != nil {
		s.scheduler.Start()
	}
	log.WithField("addr", s.HTTP.Addr).Info("Server listening")
	if err := s.HTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains HTTP, stops jobs and the hub, then releases the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.HTTP.Shutdown(ctx)
	if s.scheduler != nil {
		s.scheduler.Stop(ctx)
	}
	s.stopHub()
	if cerr := s.rdb.Close(); cerr != nil {
		log.WithError(cerr).Warn("failed to close Redis client")
	}
	s.pool.Close()
	return err
}
