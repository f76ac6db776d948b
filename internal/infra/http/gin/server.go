package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"staybook/internal/infra/config"
	"staybook/internal/infra/obs"
)

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
}

type SpecialRatesHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Activate(c *gin.Context)
	Deactivate(c *gin.Context)
	Delete(c *gin.Context)
}

type BookingHTTP interface {
	Quote(c *gin.Context)
	Create(c *gin.Context)
	Cancel(c *gin.Context)
	Get(c *gin.Context)
	ListByProperty(c *gin.Context)
}

type InventoryHTTP interface {
	SetRates(c *gin.Context)
}

type Handlers struct {
	Availability AvailabilityHTTP
	SpecialRates SpecialRatesHTTP
	Booking      BookingHTTP
	Inventory    InventoryHTTP
	Metrics      *obs.Metrics
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the engine without binding an address.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	if h.Metrics != nil {
		router.Use(h.Metrics.HTTPMiddleware())
	}
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	api := router.Group("/api/v1")
	properties := api.Group("/properties/:id")
	if h.Availability != nil {
		properties.GET("/calendar", h.Availability.Calendar)
	}
	if h.SpecialRates != nil {
		rates := properties.Group("/special-rates")
		rates.GET("", h.SpecialRates.List)
		rates.POST("", h.SpecialRates.Create)
		rates.PUT("/:rateId", h.SpecialRates.Update)
		rates.POST("/:rateId/activate", h.SpecialRates.Activate)
		rates.POST("/:rateId/deactivate", h.SpecialRates.Deactivate)
		rates.DELETE("/:rateId", h.SpecialRates.Delete)
	}
	if h.Inventory != nil {
		properties.PUT("/room-types/:roomTypeId/rates", h.Inventory.SetRates)
	}
	if h.Booking != nil {
		properties.POST("/quotes", h.Booking.Quote)
		properties.GET("/bookings", h.Booking.ListByProperty)
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"Location",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
