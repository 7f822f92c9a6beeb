package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gisdesk/ticket-agent/internal/config"
	"github.com/gisdesk/ticket-agent/internal/db"
	"github.com/gisdesk/ticket-agent/internal/http/handlers"
	"github.com/gisdesk/ticket-agent/internal/http/middleware"
	"github.com/gisdesk/ticket-agent/internal/service"

	_ "github.com/gisdesk/ticket-agent/docs"
)

func Router(cfg config.Config, analyzer *service.Analyzer, recorder db.Recorder, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.MaxMultipartMemory = cfg.MaxUploadBytes()

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Analyzer:  analyzer,
		Recorder:  recorder,
		Validator: validator.New(),
		Logger:    logger,
		Workers:   cfg.BulkWorkers,
		MaxUpload: cfg.MaxUploadBytes(),
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/analyze_ticket", h.AnalyzeTicket)
		api.POST("/bulk_analyze", h.BulkAnalyze)
		api.POST("/import_xml", h.ImportXML)
		api.POST("/process_tickets", h.ProcessTickets)
		api.POST("/generate_response", h.GenerateResponse)
		api.GET("/stats", h.Stats)
		api.POST("/feedback", h.Feedback)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
