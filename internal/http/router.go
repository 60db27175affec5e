package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/amnii/internal/cache"
	"github.com/geocoder89/amnii/internal/domain/resource"
	"github.com/geocoder89/amnii/internal/http/handlers"
	"github.com/geocoder89/amnii/internal/http/middlewares"
	"github.com/geocoder89/amnii/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Env         string
	ServiceName string
	Log         *slog.Logger

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	Accounts  handlers.AccountService
	Tokens    middlewares.TokenVerifier
	Resources resource.Store
	Cache     cache.Store
	Checks    map[string]handlers.ReadinessCheck

	ShuttingDown func() bool

	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	LoginRatePerMinute int
	WriteRatePerMinute int
}

// publicReads lists the kinds whose GET routes need no token.
var publicReads = map[resource.Kind]bool{
	resource.Genres: true,
}

func NewRouter(d Deps) *gin.Engine {
	if d.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.ServiceName == "" {
		d.ServiceName = "amnii-api"
	}
	if d.WriteRatePerMinute <= 0 {
		d.WriteRatePerMinute = 120
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(d.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.CORSAllowedOrigins))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(d.Log))

	// health + ops
	h := handlers.NewHealthHandler(d.Checks, d.ShuttingDown)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	authMw := middlewares.NewAuthMiddleware(d.Tokens, d.Prom, d.Log)
	credLimiter := middlewares.NewRateLimiter(d.LoginRatePerMinute, time.Minute)
	writeLimiter := middlewares.NewRateLimiter(d.WriteRatePerMinute, time.Minute)

	bodyGuards := []gin.HandlerFunc{middlewares.MaxBodyBytes(d.MaxBodyBytes), middlewares.RequireJSON()}

	api := r.Group("/api")
	api.Use(bodyGuards...)

	// users + auth
	authHandler := handlers.NewAuthHandler(d.Accounts, d.Log)
	limitCreds := credLimiter.RateLimiterMiddleware(middlewares.KeyByIP)

	api.POST("/users", limitCreds, authHandler.Register)
	api.GET("/users/me", authMw.RequireAuth(), authHandler.Me)
	api.POST("/auth", limitCreds, authHandler.Login)
	api.POST("/register", limitCreds, authHandler.Register)
	api.POST("/login", limitCreds, authHandler.Login)

	// bare /register and /login for clients that don't use the /api prefix
	bare := r.Group("", bodyGuards...)
	bare.POST("/register", limitCreds, authHandler.Register)
	bare.POST("/login", limitCreds, authHandler.Login)

	// writes run after RequireAuth so they are limited per subject
	limitWrites := writeLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP)

	// catalog
	for _, kind := range resource.Kinds {
		rh := handlers.NewResourcesHandler(kind, d.Resources, d.Cache, d.Log)
		g := api.Group("/" + string(kind))

		read := []gin.HandlerFunc{}
		if !publicReads[kind] {
			read = append(read, authMw.RequireAuth())
		}

		g.GET("", append(read, rh.List)...)
		g.GET("/:id", append(read, rh.Get)...)
		g.POST("", authMw.RequireAuth(), limitWrites, rh.Create)
		g.PUT("/:id", authMw.RequireAuth(), authMw.RequireAdmin(), limitWrites, rh.Update)
		g.DELETE("/:id", authMw.RequireAuth(), authMw.RequireAdmin(), limitWrites, rh.Delete)
	}

	return r
}
