package api

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/metrics"
	"alcyxob/therapy-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	Auth     service.AuthService
	Patients service.PatientService
	Series   service.SeriesService
	Postures service.PostureService
	Sessions service.SessionService
	Stats    service.StatsService
}

// NewRouter builds the engine with recovery, request logging and metrics and
// registers every route. gatherer may be nil to skip /metrics.
func NewRouter(jwtSecret string, services Services, metricsManager *metrics.Manager, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(PanicRecovery(metricsManager), LogRequest())
	if metricsManager != nil {
		router.Use(RequestMetrics(metricsManager))
	}
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	SetupRoutes(router, jwtSecret, services)
	return router
}

func SetupRoutes(router *gin.Engine, jwtSecret string, services Services) {
	authHandler := NewAuthHandler(services.Auth)
	patientHandler := NewPatientHandler(services.Patients, services.Series)
	seriesHandler := NewSeriesHandler(services.Series)
	postureHandler := NewPostureHandler(services.Postures)
	sessionHandler := NewSessionHandler(services.Sessions)
	statsHandler := NewStatsHandler(services.Stats)
	executionHandler := NewExecutionHandler(services.Series)

	authMiddleware := AuthMiddleware(jwtSecret)
	instructorOnly := RoleMiddleware(domain.RoleInstructor)
	patientOnly := RoleMiddleware(domain.RolePatient)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
		apiV1.POST("/pacientes/establecer-password", authHandler.SetPatientPassword)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		posturas := protected.Group("/posturas")
		{
			posturas.GET("", instructorOnly, postureHandler.ListPostures)
			posturas.GET("/:id", postureHandler.GetPosture)
		}

		series := protected.Group("/series")
		series.Use(instructorOnly)
		{
			series.POST("", seriesHandler.CreateSeries)
			series.GET("", seriesHandler.ListSeries)
			series.GET("/:id", seriesHandler.GetSeries)
			series.PUT("/:id", seriesHandler.UpdateSeries)
		}

		pacientes := protected.Group("/pacientes")
		{
			// Patient-facing; static segments win over /:id
			pacientes.GET("/mi-serie", patientOnly, patientHandler.MySeries)
			pacientes.GET("/mi-perfil", patientOnly, patientHandler.MyProfile)
			pacientes.GET("/mi-historial", patientOnly, patientHandler.MyHistory)

			pacientes.POST("", instructorOnly, patientHandler.RegisterPatient)
			pacientes.GET("", instructorOnly, patientHandler.ListPatients)
			pacientes.GET("/:id", instructorOnly, patientHandler.GetPatient)
			pacientes.PUT("/:id", instructorOnly, patientHandler.UpdatePatient)
			pacientes.POST("/:id/asignar-serie", instructorOnly, patientHandler.AssignSeries)
			pacientes.POST("/:id/recontar-progreso", instructorOnly, patientHandler.RecountProgress)
			pacientes.GET("/:id/historial", instructorOnly, patientHandler.History)
		}

		protected.POST("/sesiones/registrar", patientOnly, sessionHandler.RecordSession)

		ejecucion := protected.Group("/ejecucion")
		ejecucion.Use(patientOnly)
		{
			ejecucion.GET("", executionHandler.GetExecution)
			ejecucion.POST("/acciones", executionHandler.ApplyAction)
		}

		protected.GET("/stats", instructorOnly, statsHandler.GetStats)
	}
}
