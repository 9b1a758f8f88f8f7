package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"clinic_backend/internal/cache"
	"clinic_backend/internal/config"
	"clinic_backend/internal/database"
	"clinic_backend/internal/metrics"
	"clinic_backend/internal/repositories"
	"clinic_backend/internal/router"
	"clinic_backend/internal/services"
	"clinic_backend/internal/storage"
	"clinic_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 15 * time.Second

func runServer(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if cfg.AutoMigrate {
		if err := database.ApplyMigrations(ctx, cfg.Database); err != nil {
			return err
		}
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				utils.LogWarn(err, "Error closing redis client")
			}
		}()
	}

	var objectStore *storage.ObjectStore
	if cfg.S3.Bucket != "" {
		s3Client, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return err
		}
		objectStore = storage.NewObjectStore(s3Client, cfg.S3.Bucket, cfg.S3.PublicBaseURL)
	} else {
		utils.LogInfo("S3_BUCKET not set; exam and image uploads are disabled")
	}

	clinicMetrics := metrics.NewClinicMetrics(prometheus.DefaultRegisterer)

	var (
		verifier utils.TokenVerifier
		issuer   services.TokenIssuer
	)
	switch cfg.Auth.Mode {
	case config.AuthModeLocal:
		local := utils.NewLocalTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		verifier, issuer = local, local
	default:
		verifier = utils.NewJWKSVerifier(utils.JWKSConfig{
			JWKSURL:  cfg.Auth.JWKSURL,
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
			CacheTTL: cfg.Auth.JWKSCacheTTL,
		}, nil)
	}

	accountRepo := repositories.NewAccountRepository(db)
	patientRepo := repositories.NewPatientRepository(db)
	appointmentRepo := repositories.NewAppointmentRepository(db)
	recordRepo := repositories.NewMedicalRecordRepository(db)
	materialRepo := repositories.NewMaterialRepository(db)
	machineRepo := repositories.NewMachineRepository(db)
	prescriptionRepo := repositories.NewPrescriptionRepository(db)
	examRepo := repositories.NewExamRepository(db)
	procedureRepo := repositories.NewProcedureRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	var identityStore services.IdentityStore
	if identityCache := cache.NewIdentityCache(redisClient, cfg.Redis.IdentityTTL); identityCache != nil {
		identityStore = identityCache
	}

	var fileStore services.FileStore
	if objectStore != nil {
		fileStore = objectStore
	}

	svc := router.Services{
		Identity:     services.NewIdentityService(verifier, accountRepo, identityStore, clinicMetrics),
		Account:      services.NewAccountService(accountRepo, issuer, db),
		Patient:      services.NewPatientService(patientRepo, db),
		Appointment:  services.NewAppointmentService(appointmentRepo, patientRepo, db),
		Record:       services.NewMedicalRecordService(recordRepo, patientRepo, db),
		Catalog:      services.NewCatalogService(materialRepo, machineRepo, db),
		Prescription: services.NewPrescriptionService(prescriptionRepo, patientRepo, db),
		Exam:         services.NewExamService(examRepo, patientRepo, fileStore, db),
		Procedure:    services.NewProcedureService(procedureRepo, patientRepo, materialRepo, machineRepo, db, clinicMetrics, cfg.Location, nil),
		Media:        services.NewProcedureMediaService(patientRepo, fileStore),
		Report:       services.NewReportService(reportRepo),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := router.New(svc, router.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        clinicMetrics,
		DB:             db,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "auth_mode": cfg.Auth.Mode})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			utils.LogError(err, "Server stopped unexpectedly")
		}
		return err
	case <-ctx.Done():
	}

	utils.LogInfo("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Graceful shutdown failed")
		return err
	}
	utils.LogInfo("Server exited")
	return nil
}
