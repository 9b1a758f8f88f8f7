package router

import (
	"clinic_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

func SetupPublicAccountRoutes(apiGroup *gin.RouterGroup, accountHandler *handlers.AccountHandler) {
	apiGroup.POST("/register", accountHandler.Register)
	apiGroup.POST("/login", accountHandler.Login)
}

// SetupCatalogRoutes registers materials and machines; any authenticated account may manage them.
func SetupCatalogRoutes(group *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	materialRoutes := group.Group("/materials")
	{
		materialRoutes.POST("", catalogHandler.CreateMaterial)
		materialRoutes.GET("/list", catalogHandler.ListMaterials)
		materialRoutes.PUT("/:id", catalogHandler.UpdateMaterial)
		materialRoutes.DELETE("/:id", catalogHandler.DeleteMaterial)
	}

	machineRoutes := group.Group("/machines")
	{
		machineRoutes.POST("", catalogHandler.CreateMachine)
		machineRoutes.GET("/list", catalogHandler.ListMachines)
		machineRoutes.PUT("/:id", catalogHandler.UpdateMachine)
		machineRoutes.DELETE("/:id", catalogHandler.DeleteMachine)
	}
}

// SetupPatientRoutes registers the patient resource and everything nested under /patient/:id.
func SetupPatientRoutes(
	group *gin.RouterGroup,
	patientHandler *handlers.PatientHandler,
	recordHandler *handlers.MedicalRecordHandler,
	examHandler *handlers.ExamHandler,
	procedureHandler *handlers.ProcedureHandler,
) {
	patientRoutes := group.Group("/patient")
	{
		patientRoutes.POST("", patientHandler.CreatePatient)
		patientRoutes.GET("/list", patientHandler.ListPatients)
		patientRoutes.GET("/:id", patientHandler.GetPatientByID)

		patientRoutes.POST("/:id/records", recordHandler.CreateRecord)
		patientRoutes.GET("/:id/records", recordHandler.ListRecords)
		patientRoutes.POST("/:id/anamnesis", recordHandler.CreateAnamnesis)
		patientRoutes.GET("/:id/anamnesis", recordHandler.ListAnamneses)

		patientRoutes.POST("/:id/exams", examHandler.UploadExam)
		patientRoutes.GET("/:id/exams/list", examHandler.ListExams)
		patientRoutes.GET("/:id/exam-orders/list", examHandler.ListOrders)

		patientRoutes.POST("/:id/procedures/uploads", procedureHandler.UploadImage)
	}
}

func SetupAppointmentRoutes(group *gin.RouterGroup, appointmentHandler *handlers.AppointmentHandler) {
	appointmentRoutes := group.Group("/appointments")
	{
		appointmentRoutes.POST("", appointmentHandler.CreateAppointment)
		appointmentRoutes.GET("/list", appointmentHandler.ListAppointments)
		appointmentRoutes.PUT("/:id", appointmentHandler.UpdateAppointment)
		appointmentRoutes.DELETE("/:id", appointmentHandler.DeleteAppointment)
	}
}

func SetupPrescriptionRoutes(group *gin.RouterGroup, prescriptionHandler *handlers.PrescriptionHandler) {
	prescriptionRoutes := group.Group("/prescriptions")
	{
		prescriptionRoutes.POST("", prescriptionHandler.CreatePrescription)
		prescriptionRoutes.GET("/list", prescriptionHandler.ListPrescriptions)
		prescriptionRoutes.PUT("/:id", prescriptionHandler.UpdatePrescription)
		prescriptionRoutes.DELETE("/:id", prescriptionHandler.DeletePrescription)
	}
}

func SetupExamOrderRoutes(group *gin.RouterGroup, examHandler *handlers.ExamHandler) {
	orderRoutes := group.Group("/exam-orders")
	{
		orderRoutes.POST("", examHandler.CreateOrder)
		orderRoutes.GET("/:id", examHandler.GetOrder)
		orderRoutes.PATCH("/:id", examHandler.UpdateOrder)
		orderRoutes.DELETE("/:id", examHandler.DeleteOrder)
	}
}

// SetupProcedureRoutes also mounts the /procedimentos aliases used by older clients.
func SetupProcedureRoutes(group *gin.RouterGroup, procedureHandler *handlers.ProcedureHandler) {
	for _, prefix := range []string{"/procedures", "/procedimentos"} {
		routes := group.Group(prefix)
		routes.POST("", procedureHandler.CreateProcedure)
		routes.GET("", procedureHandler.ListProcedures)
		routes.DELETE("/:id", procedureHandler.DeleteProcedure)
	}
	group.GET("/procedures/:id", procedureHandler.GetProcedureByID)
}

func SetupReportRoutes(group *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	group.GET("/relatorios/dia/:date", reportHandler.GetDayReport)
}
