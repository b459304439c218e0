package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/roster-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/time/rate"
)

// RouterOptions carries the deployment settings the router needs.
type RouterOptions struct {
	AppName        string
	Version        string
	Env            string
	AllowedOrigins []string
	// ClockRate and ClockBurst limit clock-in/clock-out per user. A zero rate disables limiting.
	ClockRate  rate.Limit
	ClockBurst int
}

func NewRouter(
	opts RouterOptions,
	JWTService jwt.Service,
	authHandler AuthHandler,
	userHandler UserHandler,
	scheduleHandler ScheduleHandler,
	attendanceHandler AttendanceHandler,
	reportHandler ReportHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", opts.AppName),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionRosterView))
				r.Get("/shifts/{id}", scheduleHandler.GetShift)
				r.Get("/roster", scheduleHandler.GetRoster)
				r.Get("/roster.ics", scheduleHandler.ExportRosterICS)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionAttendanceOwn))
				r.Get("/", attendanceHandler.Get)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RateLimitByUser(opts.ClockRate, opts.ClockBurst))
					r.Post("/clock-in", attendanceHandler.ClockIn)
					r.Post("/clock-out", attendanceHandler.ClockOut)
				})
			})

			r.With(middleware.RequirePermission(user.PermissionUserView)).Get("/users", userHandler.List)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.AdminOnly)

				r.Route("/shifts", func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionShiftManage))
					r.Post("/", scheduleHandler.ScheduleShift)
					r.Post("/bulk", scheduleHandler.ScheduleWeek)
				})

				r.Route("/reports", func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionReportsView))
					r.Get("/weekly", reportHandler.Weekly)
					r.Get("/weekly/export", reportHandler.ExportWeekly)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"route not found"}}`))
	})

	return r
}
