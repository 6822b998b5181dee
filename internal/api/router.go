package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/milkmix/farm-backend/docs"
	"github.com/milkmix/farm-backend/internal/api/handler"
	"github.com/milkmix/farm-backend/internal/api/middleware"
	"github.com/milkmix/farm-backend/internal/core/domain"
	"github.com/milkmix/farm-backend/internal/core/ports"
	"github.com/milkmix/farm-backend/internal/infrastructure/http/handlers"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Log         zerolog.Logger
	Tokens      ports.TokenIssuer
	Auth        ports.AuthService
	Profiles    ports.ProfileService
	Members     ports.MemberService
	Consultants ports.ConsultantService
	Readiness   *handlers.HealthDependenciesHandler

	// Registry receives the HTTP request metrics. Nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(promConfig(deps.Registry)))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	profileHandler := handler.NewProfileHandler(deps.Profiles)
	memberHandler := handler.NewMemberHandler(deps.Members)
	consultantHandler := handler.NewConsultantHandler(deps.Consultants)
	authMiddleware := middleware.Auth(deps.Tokens)

	// --- Public account lifecycle ---
	e.POST("/sign-up", authHandler.SignUp)
	e.POST("/sign-in", authHandler.SignIn)
	e.POST("/otp/create", authHandler.CreateOTP)
	e.POST("/otp/verify", authHandler.VerifyOTP)
	e.POST("/password-reset-otp", authHandler.PasswordResetOTP)
	e.POST("/reset/otp-verify", authHandler.ResetOTPVerify)
	e.POST("/password-reset/confirm", authHandler.PasswordResetConfirm)
	e.POST("/refresh", authHandler.Refresh)

	// --- Authenticated account routes ---
	e.POST("/password-change", authHandler.PasswordChange, authMiddleware)
	e.GET("/profile", profileHandler.GetProfile, authMiddleware)
	e.PUT("/profile", profileHandler.UpdateProfile, authMiddleware)
	e.GET("/users", profileHandler.ListUsers, authMiddleware, middleware.RBAC(domain.RoleAdmin))

	// --- Members ---
	members := e.Group("/members", authMiddleware)
	members.POST("/create", memberHandler.Create, middleware.RBAC(domain.RoleFarm, domain.RoleAdmin))
	members.GET("/farm/:farm_id", memberHandler.ListByFarm)
	members.GET("/profile", memberHandler.Self, middleware.RBAC(domain.RoleFarmUser))
	members.POST("/:member_id/deactivate", memberHandler.Deactivate, middleware.RBAC(domain.RoleFarm, domain.RoleAdmin))

	// --- Consultants ---
	consultants := e.Group("/consultants", authMiddleware)
	consultants.GET("/search/farm", consultantHandler.SearchFarms)
	consultants.POST("/request", consultantHandler.SendRequest, middleware.RBAC(domain.RoleConsultant, domain.RoleAdmin))
	consultants.POST("/request/:id/manage", consultantHandler.ManageRequest, middleware.RBAC(domain.RoleFarm, domain.RoleAdmin))
	consultants.GET("/request-list", consultantHandler.PendingRequests)
	consultants.GET("/farm/list", consultantHandler.AcceptedFarms)
	consultants.GET("/farm/:farm_id/member-list", consultantHandler.FarmMembers)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	e.GET("/health", healthHandler.Liveness)
	if deps.Readiness != nil {
		e.GET("/health/ready", deps.Readiness.Readiness)
	}
	e.GET("/metrics", promHandler(deps.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func promConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{Subsystem: "farm"}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func promHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

// requestLogger writes one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			switch {
			case v.Status >= 500:
				evt = log.Error().Err(v.Error)
			case v.Error != nil:
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
