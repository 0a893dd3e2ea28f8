package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"storefront-gateway/app/controller"
	"storefront-gateway/app/middleware"
	"storefront-gateway/metrics"
)

type Controllers struct {
	Cart    *controller.CartController
	Session *controller.SessionController
	Events  *controller.EventsController
}

// Options carries the middleware settings of the router
type Options struct {
	AllowedOrigins []string
	Device         middleware.DeviceOptions
	Tokens         *middleware.TokenParser
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
}

// pingHandler handles GET /ping
func pingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.DeviceHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			// Echo the caller's origin; a literal "*" is not allowed with credentials.
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return true }
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

func SetupRoutes(controllers *Controllers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(opts.Logger, opts.Metrics))
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	// Ping endpoint
	r.GET("/ping", pingHandler)

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(metrics.Handler(opts.Gatherer)))

	shopper := r.Group("/")
	shopper.Use(middleware.Device(opts.Device), middleware.OptionalAuth(opts.Tokens))

	// Cart routes
	cart := shopper.Group("/cart")
	cart.GET("", controllers.Cart.GetCart)
	cart.GET("/summary", controllers.Cart.GetSummary)
	cart.GET("/wholesale", controllers.Cart.GetWholesale)
	cart.GET("/count", controllers.Cart.GetCount)
	cart.POST("/items", controllers.Cart.AddItem)
	cart.DELETE("/items/:productId", controllers.Cart.RemoveItem)

	// Live cart view
	cart.GET("/events", controllers.Events.Stream)

	// Session routes
	session := shopper.Group("/session")
	session.GET("", controllers.Session.Current)
	session.POST("/login", middleware.RequireAuth(), controllers.Session.Login)
	session.POST("/logout", controllers.Session.Logout)

	return r
}
