package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/carelane/carelane/internal/service"
	"github.com/carelane/carelane/pkg/auth"
	"github.com/carelane/carelane/pkg/metrics"
)

type Services struct {
	Patients   *service.PatientService
	Records    *service.RecordLedger
	Admissions *service.AdmissionLedger
	Status     *service.StatusMachine
	Timeline   *service.Timeline
	Auth       *service.AuthService
}

func NewRouter(svcs Services, jwtManager *auth.JWTManager, m *metrics.Collector, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), Observe(m, log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	authHandler := NewAuthHandler(svcs.Auth)
	patientHandler := NewPatientHandler(svcs.Patients, svcs.Timeline)
	recordHandler := NewRecordHandler(svcs.Records)
	admissionHandler := NewAdmissionHandler(svcs.Admissions)
	statusHandler := NewStatusHandler(svcs.Status)

	api := r.Group("/api/v1")

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	protected := api.Group("", auth.Middleware(jwtManager))
	{
		protected.POST("/patients", patientHandler.Register)
		protected.GET("/patients/:id", patientHandler.Get)
		protected.GET("/patients/:id/summary", patientHandler.Summary)
		protected.GET("/patients/:id/timeline", patientHandler.Timeline)

		protected.POST("/patients/:id/record-numbers", recordHandler.Assign)
		protected.GET("/patients/:id/record-numbers", recordHandler.History)
		protected.GET("/patients/:id/record-numbers/current", recordHandler.Current)

		protected.POST("/patients/:id/admissions", admissionHandler.Admit)
		protected.GET("/patients/:id/admissions", admissionHandler.List)
		protected.GET("/patients/:id/admissions/active", admissionHandler.Active)
		protected.POST("/patients/:id/discharge", admissionHandler.Discharge)
		protected.POST("/patients/:id/relocate", admissionHandler.Relocate)

		protected.POST("/patients/:id/status", statusHandler.Transition)

		protected.GET("/wards/:ward/occupancy", admissionHandler.Occupancy)
	}

	return r
}
