package v1

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinical-records-service/internal/config"
	"clinical-records-service/pkg/metrics"
)

type RouterConfig struct {
	Logger   *zap.Logger
	Metrics  *metrics.Collector
	CORS     config.CORSConfig
	Patients *PatientHandler
	Exams    *ExamHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(cfg.Logger))
	router.Use(requestMetrics(cfg.Metrics))
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowedOrigins,
		AllowMethods: cfg.CORS.AllowedMethods,
		AllowHeaders: cfg.CORS.AllowedHeaders,
		MaxAge:       cfg.CORS.MaxAge,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	pacientes := router.Group("/pacientes")
	{
		pacientes.POST("", cfg.Patients.Create)
		pacientes.GET("", cfg.Patients.List)
		pacientes.GET("/:id", cfg.Patients.Get)
		pacientes.PUT("/:id", cfg.Patients.Update)
	}

	exames := router.Group("/exames")
	{
		exames.POST("", cfg.Exams.Create)
		exames.GET("", cfg.Exams.List)
		exames.GET("/:id", cfg.Exams.Get)
	}

	return router
}
