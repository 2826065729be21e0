package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/microtask/taskhub/docs"
	"github.com/microtask/taskhub/internal/api/handler"
	"github.com/microtask/taskhub/internal/api/middleware"
	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/service"
)

// Deps are the collaborators the console routes are built from.
type Deps struct {
	Sessions middleware.SessionReader
	Router   *service.RoleRouter
	Auth     handler.Auth
	Wallet   handler.Wallet
	Market   handler.Marketplace
	Unread   handler.Unread
	Economy  domain.Economy
	// Pending receives the gateway's forced navigation to /login.
	Pending *middleware.PendingRedirect
	Checks  map[string]handler.Check
	// Registry is where request metrics go; nil means the default registry.
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "taskhub_console",
		Registerer: registerer,
	}))
	if d.Pending != nil {
		e.Use(middleware.ForcedReauth(d.Pending))
	}

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Economy)
	workerHandler := handler.NewWorkerHandler(d.Market, d.Wallet, d.Unread)
	buyerHandler := handler.NewBuyerHandler(d.Market, d.Wallet, d.Unread)
	adminHandler := handler.NewAdminHandler(d.Market, d.Unread)
	accountHandler := handler.NewAccountHandler(d.Market, d.Unread)

	public := middleware.PublicOnly(d.Sessions, d.Router)
	protected := middleware.Protected(d.Sessions, d.Router)
	roleSelection := middleware.RoleSelection(d.Sessions, d.Router)

	// --- Public routes ---
	e.GET(service.RouteLogin, authHandler.LoginForm, public)
	e.POST(service.RouteLogin, authHandler.Login, public)
	e.GET(service.RouteRegister, authHandler.RegisterForm, public)
	e.POST(service.RouteRegister, authHandler.Register, public)
	e.POST("/auth/external", authHandler.ExternalLogin, public)
	e.GET("/top-workers", accountHandler.TopWorkers)
	e.POST("/logout", authHandler.Logout)

	e.GET(service.RouteSelectRole, authHandler.SelectRoleForm, roleSelection)
	e.POST(service.RouteSelectRole, authHandler.SelectRole, roleSelection)

	// --- Dashboards ---
	dash := e.Group(service.RouteDashboard, protected)
	dash.GET("", func(c echo.Context) error {
		// The gate always redirects this route; reaching here means no role rule matched.
		return c.Redirect(http.StatusSeeOther, service.RouteLogin)
	})

	dash.GET("/worker-home", workerHandler.Home)
	dash.GET("/task-list", workerHandler.TaskList)
	dash.GET("/task/:id", workerHandler.TaskDetail)
	dash.POST("/task/:id/submit", workerHandler.Submit)
	dash.GET("/my-submissions", workerHandler.MySubmissions)
	dash.GET("/withdrawals", workerHandler.Withdrawals)
	dash.POST("/withdrawals", workerHandler.RequestWithdrawal)

	dash.GET("/buyer-home", buyerHandler.Home)
	dash.GET("/add-task", buyerHandler.AddTaskForm)
	dash.POST("/add-task", buyerHandler.CreateTask)
	dash.GET("/my-tasks", buyerHandler.MyTasks)
	dash.PATCH("/my-tasks/:id", buyerHandler.UpdateTask)
	dash.DELETE("/my-tasks/:id", buyerHandler.DeleteTask)
	dash.GET("/review", buyerHandler.Review)
	dash.POST("/review/:id/approve", buyerHandler.Approve)
	dash.POST("/review/:id/reject", buyerHandler.Reject)
	dash.GET("/purchase-coins", buyerHandler.PurchaseForm)
	dash.POST("/purchase-coins", buyerHandler.Purchase)
	dash.GET("/payment-history", buyerHandler.PaymentHistory)

	dash.GET("/admin-home", adminHandler.Home)
	dash.GET("/manage-users", adminHandler.Users)
	dash.PATCH("/manage-users/:id/role", adminHandler.ChangeRole)
	dash.DELETE("/manage-users/:id", adminHandler.DeleteUser)
	dash.GET("/manage-tasks", adminHandler.Tasks)
	dash.DELETE("/manage-tasks/:id", adminHandler.DeleteTask)
	dash.GET("/manage-reports", adminHandler.Reports)
	dash.PATCH("/manage-reports/:id", adminHandler.UpdateReport)
	dash.GET("/withdrawal-requests", adminHandler.WithdrawalRequests)
	dash.POST("/withdrawal-requests/:id/approve", adminHandler.ApproveWithdrawal)

	dash.GET("/profile", accountHandler.Profile)
	dash.PATCH("/profile", accountHandler.UpdateProfile)
	dash.GET("/notifications", accountHandler.Notifications)
	dash.POST("/notifications/:id/read", accountHandler.MarkRead)
	dash.POST("/notifications/read-all", accountHandler.MarkAllRead)

	// --- Health probes, metrics and docs (no session required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	log = log.With().Str("component", "console").Logger()
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
