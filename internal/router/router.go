package router

import (
	"net/http"

	"clinic_backend/internal/handlers"
	"clinic_backend/internal/metrics"
	"clinic_backend/internal/middleware"
	"clinic_backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles everything the HTTP layer depends on.
type Services struct {
	Identity     services.IdentityService
	Account      services.AccountService
	Patient      services.PatientService
	Appointment  services.AppointmentService
	Record       services.MedicalRecordService
	Catalog      services.CatalogService
	Prescription services.PrescriptionService
	Exam         services.ExamService
	Procedure    services.ProcedureService
	Media        services.ProcedureMediaService
	Report       services.ReportService
}

type Options struct {
	AllowedOrigins []string
	Metrics        *metrics.ClinicMetrics
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
	DB       handlers.Pinger
}

// New builds the gin engine with middleware and every route registered.
func New(svc Services, opts Options) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger())
	engine.Use(middleware.Metrics(opts.Metrics))

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	Setup(engine, svc, opts)
	return engine
}

// Setup registers the operational endpoints and the /api/v1 tree.
func Setup(engine *gin.Engine, svc Services, opts Options) {
	healthHandler := handlers.NewHealthHandler(opts.DB)
	engine.GET("/ping", healthHandler.Ping)
	engine.GET("/healthz", healthHandler.Healthz)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	accountHandler := handlers.NewAccountHandler(svc.Account)
	patientHandler := handlers.NewPatientHandler(svc.Patient)
	appointmentHandler := handlers.NewAppointmentHandler(svc.Appointment)
	recordHandler := handlers.NewMedicalRecordHandler(svc.Record)
	catalogHandler := handlers.NewCatalogHandler(svc.Catalog)
	prescriptionHandler := handlers.NewPrescriptionHandler(svc.Prescription)
	examHandler := handlers.NewExamHandler(svc.Exam)
	procedureHandler := handlers.NewProcedureHandler(svc.Procedure, svc.Media)
	reportHandler := handlers.NewReportHandler(svc.Report)

	apiV1 := engine.Group("/api/v1")
	SetupPublicAccountRoutes(apiV1, accountHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(svc.Identity))
	{
		authenticated.GET("/user", accountHandler.GetCurrentAccount)
		SetupCatalogRoutes(authenticated, catalogHandler)

		clinical := authenticated.Group("")
		clinical.Use(middleware.RequireClinician())
		SetupPatientRoutes(clinical, patientHandler, recordHandler, examHandler, procedureHandler)
		SetupAppointmentRoutes(clinical, appointmentHandler)
		SetupPrescriptionRoutes(clinical, prescriptionHandler)
		SetupExamOrderRoutes(clinical, examHandler)
		SetupProcedureRoutes(clinical, procedureHandler)
		SetupReportRoutes(clinical, reportHandler)
	}

	// Root-level procedure and report paths kept for clients that predate /api/v1.
	legacy := engine.Group("")
	legacy.Use(middleware.AuthMiddleware(svc.Identity), middleware.RequireClinician())
	{
		SetupProcedureRoutes(legacy, procedureHandler)
		SetupReportRoutes(legacy, reportHandler)
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Route not found"}})
	})
}
