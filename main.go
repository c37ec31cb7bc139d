package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/vitaltrack/backend/internal/audit"
	"github.com/vitaltrack/backend/internal/azure"
	"github.com/vitaltrack/backend/internal/config"
	"github.com/vitaltrack/backend/internal/handler"
	"github.com/vitaltrack/backend/internal/middleware"
	"github.com/vitaltrack/backend/internal/notify"
	"github.com/vitaltrack/backend/internal/pdf"
	"github.com/vitaltrack/backend/internal/repository"
	"github.com/vitaltrack/backend/internal/scheduler"
	"github.com/vitaltrack/backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize Zap logger
	var logger *zap.Logger
	if cfg.Server.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded successfully",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize database connection pool with pgx
	pool, err := pgxpool.New(context.Background(), cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	// Test database connection
	if err := pool.Ping(context.Background()); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}
	logger.Info("Successfully connected to database")

	// Initialize Azure blob storage for reports
	blobClient, err := azure.NewBlobStorageClient(
		cfg.Azure.Storage.AccountName,
		cfg.Azure.Storage.AccountKey,
		cfg.Azure.Storage.ReportContainer,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to initialize Azure Blob Storage client", zap.Error(err))
	}

	// The OpenAI client is optional; without it the daily emails use
	// templated text
	var completer notify.TextCompleter
	if cfg.Azure.OpenAI.Endpoint != "" {
		openAIClient, err := azure.NewOpenAIClient(
			cfg.Azure.OpenAI.Endpoint,
			cfg.Azure.OpenAI.APIKey,
			cfg.Azure.OpenAI.Deployment,
			logger,
		)
		if err != nil {
			logger.Fatal("Failed to initialize Azure OpenAI client", zap.Error(err))
		}
		completer = openAIClient
	}

	// Initialize repositories
	readingRepo := repository.NewReadingRepository(pool, logger)
	medicationRepo := repository.NewMedicationRepository(pool, logger)
	reminderRepo := repository.NewReminderRepository(pool, logger)
	patientRepo := repository.NewPatientRepository(pool, logger)

	// Initialize services
	analysisService := service.NewAnalysisService(readingRepo, medicationRepo, reminderRepo, patientRepo, logger)
	readingService := service.NewReadingService(readingRepo, analysisService, logger)
	medicationService := service.NewMedicationService(medicationRepo, reminderRepo, logger)

	pdfGenerator := pdf.NewPDFGenerator(logger)
	reportService := service.NewReportService(
		readingRepo,
		medicationRepo,
		patientRepo,
		analysisService,
		blobClient,
		pdfGenerator,
		logger,
	)

	// Notification sink: SMTP when configured, log-only otherwise
	var sink notify.Sink
	if cfg.SMTP.Host != "" {
		sink = notify.NewSMTPSink(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, logger)
		logger.Info("Using SMTP notification sink", zap.String("host", cfg.SMTP.Host))
	} else {
		sink = notify.NewLogSink(logger)
		logger.Info("No SMTP host configured, notifications are simulated")
	}

	composer := notify.NewComposer(completer, logger)

	// Initialize notification scheduler
	sched := scheduler.New(scheduler.Config{
		MedicationInterval:  cfg.Scheduler.MedicationInterval,
		DailyInterval:       cfg.Scheduler.DailyInterval,
		ReloadInterval:      cfg.Scheduler.ReloadInterval,
		OperatingHoursStart: cfg.Scheduler.OperatingHoursStart,
		OperatingHoursEnd:   cfg.Scheduler.OperatingHoursEnd,
		SendsPerSecond:      cfg.Scheduler.SendsPerSecond,
	}, patientRepo, medicationRepo, reminderRepo, readingRepo, analysisService, composer, sink, logger)
	auditTrail := audit.NewTrail(pool, logger)
	sched.SetAuditTrail(auditTrail)

	if err := sched.Start(context.Background()); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	r := gin.New()

	// Add recovery middleware (must be first)
	r.Use(middleware.RecoveryMiddleware(logger))

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Configure appropriately for production
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Add request ID middleware
	r.Use(middleware.RequestIDMiddleware())

	// Add request logging middleware
	r.Use(middleware.RequestLoggingMiddleware(logger))

	// Add error logging middleware
	r.Use(middleware.ErrorLoggingMiddleware(logger))

	// Add slow request logging middleware
	r.Use(middleware.SlowRequestLoggingMiddleware(logger, 1*time.Second))

	// Register API routes
	handler.RegisterRoutes(r, handler.Handlers{
		Reading:      handler.NewReadingHandler(readingService, logger),
		Analysis:     handler.NewAnalysisHandler(analysisService, logger),
		Medication:   handler.NewMedicationHandler(medicationService, logger),
		Notification: handler.NewNotificationHandler(auditTrail, logger),
		Report:       handler.NewReportHandler(reportService, logger),
		Health:       handler.NewHealthHandler(pool, sched, logger),
	})

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop the scheduler before the HTTP server so no sends race shutdown
	sched.Stop()

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close database connections
	pool.Close()

	logger.Info("Server exited")
}
