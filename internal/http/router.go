package http

import (
	"context"
	"log/slog"

	"github.com/geocoder89/bookinghub/internal/auth"
	"github.com/geocoder89/bookinghub/internal/config"
	"github.com/geocoder89/bookinghub/internal/domain/job"
	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/geocoder89/bookinghub/internal/http/handlers"
	"github.com/geocoder89/bookinghub/internal/http/middlewares"
	"github.com/geocoder89/bookinghub/internal/observability"
	"github.com/geocoder89/bookinghub/internal/payments"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "bookinghub-api"

// JobStore is the slice of postgres.JobsRepo the API needs.
type JobStore interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
	CreateTx(ctx context.Context, tx pgx.Tx, req job.CreateRequest) (job.Job, error)
	GetByID(ctx context.Context, id string) (job.Job, error)
	Retry(ctx context.Context, id string) error
}

// Deps carries everything the routes are built from. DB and Redis may be
// nil; readiness then skips them.
type Deps struct {
	Users    handlers.UserStore
	Types    handlers.AppointmentTypeStore
	Bookings handlers.BookingStore
	Jobs     JobStore
	Tokens   *auth.Manager
	Payments payments.Gateway

	// Limiter backs the login, register and forgot-password limits.
	Limiter middlewares.Limiter

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	DB    handlers.Pinger
	Redis handlers.Pinger
}

func NewRouter(log *slog.Logger, deps Deps, cfg config.Config) *gin.Engine {
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	if deps.Payments == nil {
		deps.Payments = payments.NewMockGateway()
	}
	if deps.Limiter == nil {
		deps.Limiter = middlewares.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	}

	r := gin.New()

	// ErrorHandler sits outside every other middleware so it renders what
	// any of them record.
	r.Use(middlewares.Recovery(log))
	r.Use(middlewares.ErrorHandler(log))
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.SecurityHeaders(cfg.IsProd()))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	r.NoRoute(middlewares.NotFoundHandler)

	health := handlers.NewHealthHandler(deps.DB, deps.Redis)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authn := auth.NewAuthenticator(deps.Tokens, auth.NewResolver(deps.Users))
	guard := middlewares.NewAuthMiddleware(authn, log, deps.Prom)
	requireAuth := guard.RequireAuth()
	optionalAuth := guard.OptionalAuth()
	staff := guard.RequireRole(user.RoleOrganiser, user.RoleAdmin)
	adminOnly := guard.RequireRole(user.RoleAdmin)

	limit := func(scope string) gin.HandlerFunc {
		return middlewares.RateLimit(deps.Limiter, scope, middlewares.KeyByIP, log)
	}

	authH := handlers.NewAuthHandler(deps.Users, deps.Tokens, deps.Jobs, log)
	usersH := handlers.NewUsersHandler(deps.Users)
	adminUsersH := handlers.NewAdminUsersHandler(deps.Users)
	adminJobsH := handlers.NewAdminJobsHandler(deps.Jobs)
	typesH := handlers.NewAppointmentTypesHandler(deps.Types, cfg.CacheTTL)
	bookingsH := handlers.NewBookingsHandler(deps.Bookings, deps.Types, deps.Jobs, deps.Payments, log)
	dashboardH := handlers.NewDashboardHandler(deps.Users, deps.Types, deps.Bookings)

	v1 := r.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", limit("register"), authH.Register)
	authGroup.POST("/login", limit("login"), authH.Login)
	authGroup.GET("/me", requireAuth, authH.Me)
	authGroup.POST("/verify-email", authH.VerifyEmail)
	authGroup.POST("/forgot-password", limit("forgot_password"), authH.ForgotPassword)
	authGroup.POST("/reset-password", authH.ResetPassword)

	me := v1.Group("/users/me", requireAuth)
	me.PUT("", usersH.UpdateMe)
	me.PUT("/password", middlewares.RateLimit(deps.Limiter, "change_password", middlewares.KeyByUserOrIP, log), usersH.ChangePassword)

	v1.GET("/dashboard", requireAuth, dashboardH.Get)

	admin := v1.Group("/admin", requireAuth, adminOnly)
	admin.GET("/users", adminUsersH.List)
	admin.PATCH("/users/:id/role", adminUsersH.ChangeRole)
	admin.PATCH("/users/:id/status", adminUsersH.SetStatus)
	admin.GET("/jobs/:id", adminJobsH.GetByID)
	admin.POST("/jobs/:id/retry", adminJobsH.Retry)

	types := v1.Group("/appointment-types")
	types.GET("", typesH.List)
	types.GET("/:id", typesH.GetByID)
	types.POST("", requireAuth, staff, typesH.Create)
	types.PUT("/:id", requireAuth, staff, typesH.Update)
	types.DELETE("/:id", requireAuth, staff, typesH.Delete)

	bookings := v1.Group("/bookings")
	bookings.POST("", optionalAuth, bookingsH.Create)
	bookings.GET("/mine", requireAuth, bookingsH.Mine)
	bookings.GET("/:id", optionalAuth, bookingsH.GetByID)
	bookings.POST("/:id/cancel", requireAuth, bookingsH.Cancel)
	bookings.POST("/:id/pay", optionalAuth, bookingsH.Pay)

	v1.GET("/organiser/bookings", requireAuth, staff, bookingsH.ForOrganiser)

	return r
}
