package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/smarthealth/healthconnect-api/internal/config"
	"github.com/smarthealth/healthconnect-api/internal/email"
	adminHandler "github.com/smarthealth/healthconnect-api/internal/handler/admin"
	appointmentHandler "github.com/smarthealth/healthconnect-api/internal/handler/appointment"
	authHandler "github.com/smarthealth/healthconnect-api/internal/handler/auth"
	dashboardHandler "github.com/smarthealth/healthconnect-api/internal/handler/dashboard"
	healthHandler "github.com/smarthealth/healthconnect-api/internal/handler/health"
	recordHandler "github.com/smarthealth/healthconnect-api/internal/handler/medicalrecord"
	symptomHandler "github.com/smarthealth/healthconnect-api/internal/handler/symptom"
	userHandler "github.com/smarthealth/healthconnect-api/internal/handler/user"
	"github.com/smarthealth/healthconnect-api/internal/middleware"
	"github.com/smarthealth/healthconnect-api/internal/repository/postgres"
	"github.com/smarthealth/healthconnect-api/internal/router"
	appointmentService "github.com/smarthealth/healthconnect-api/internal/service/appointment"
	authService "github.com/smarthealth/healthconnect-api/internal/service/auth"
	dashboardService "github.com/smarthealth/healthconnect-api/internal/service/dashboard"
	directoryService "github.com/smarthealth/healthconnect-api/internal/service/directory"
	medicalService "github.com/smarthealth/healthconnect-api/internal/service/medical"
	symptomService "github.com/smarthealth/healthconnect-api/internal/service/symptom"
	userService "github.com/smarthealth/healthconnect-api/internal/service/user"
	pkgauth "github.com/smarthealth/healthconnect-api/pkg/auth"
	"github.com/smarthealth/healthconnect-api/pkg/logger"
	"github.com/smarthealth/healthconnect-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	recordRepo := postgres.NewMedicalRecordRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	departmentRepo := postgres.NewDepartmentRepository(db)

	jwtSvc := pkgauth.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		time.Duration(cfg.JWT.ExpiryHours)*time.Hour,
		time.Duration(cfg.JWT.RefreshExpiryHours)*time.Hour,
	)

	emailSvc := email.NewNoopService(log)
	if cfg.SMTP.Host != "" {
		emailSvc = email.NewSMTPService(cfg.SMTP, log)
	}

	authSvc := authService.NewService(
		userRepo,
		tokenRepo,
		jwtSvc,
		emailSvc,
		time.Duration(cfg.JWT.ExpiryHours)*time.Hour,
		log,
	)
	m := metrics.NewMetrics("healthconnect", "api")

	userSvc := userService.NewService(userRepo, log)
	appointmentSvc := appointmentService.NewService(appointmentRepo, userRepo, cfg.Appointment, log).
		WithMetrics(m)
	medicalSvc := medicalService.NewService(recordRepo, userRepo, log)
	directorySvc := directoryService.NewService(doctorRepo, departmentRepo, log)
	dashboardSvc := dashboardService.NewService(appointmentRepo, recordRepo, userRepo, log)
	symptomChecker := symptomService.NewChecker()

	authMW := middleware.NewAuthMiddleware(jwtSvc, authSvc)

	r := router.NewRouter(log, router.Config{
		RateLimit:     rate.Limit(cfg.RateLimit.RPS),
		RateBurst:     cfg.RateLimit.Burst,
		CORSConfig:    middleware.DefaultCORSConfig(),
		Timeout:       cfg.Server.WriteTimeout,
		MetricsPrefix: "healthconnect",
	},
		healthHandler.NewHandler(db),
		authHandler.NewHandler(authSvc, authMW),
		userHandler.NewHandler(userSvc, authMW),
		appointmentHandler.NewHandler(appointmentSvc, authMW),
		recordHandler.NewHandler(medicalSvc, authMW),
		dashboardHandler.NewHandler(dashboardSvc, authMW),
		symptomHandler.NewHandler(symptomChecker),
		adminHandler.NewHandler(userSvc, appointmentSvc, directorySvc, authMW),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited")
}
