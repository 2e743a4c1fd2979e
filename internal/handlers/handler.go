package handlers

import (
	"net/http"

	_ "cputemp_fitting/docs" // registers the swagger spec
	"cputemp_fitting/internal/logger"
	"cputemp_fitting/internal/metrics"
	"cputemp_fitting/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const statusOK = "ok"

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  *metrics.Recorder
}

// NewHandler constructs a new HTTP handler with dependencies. rec may be nil,
// in which case /metrics is not served.
func NewHandler(services *service.Service, log *logger.Logger, rec *metrics.Recorder) *Handler {
	return &Handler{services: services, log: log, metrics: rec}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Run event stream, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerAnalysisRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerAnalysisRoutes(api *gin.RouterGroup) {
	analyses := api.Group("/analyses")
	{
		// Body: raw sensor log, one line per sample
		analyses.POST("", h.createAnalysis)
		analyses.GET("", h.listAnalyses)
		analyses.GET("/:id", h.getAnalysis)
		analyses.GET("/:id/cores/:core/report", h.getCoreReport)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}

// logAndJSONError logs err under logKey and writes userMsg as a JSON error.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}
