package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/roster-backend-go/internal/config"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/user"
	appHTTP "github.com/cmlabs-hris/roster-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/roster-backend-go/internal/repository/memory"
	"github.com/cmlabs-hris/roster-backend-go/internal/repository/postgresql"
	redisRepo "github.com/cmlabs-hris/roster-backend-go/internal/repository/redis"
	attendanceService "github.com/cmlabs-hris/roster-backend-go/internal/service/attendance"
	serviceAuth "github.com/cmlabs-hris/roster-backend-go/internal/service/auth"
	reportService "github.com/cmlabs-hris/roster-backend-go/internal/service/report"
	scheduleService "github.com/cmlabs-hris/roster-backend-go/internal/service/schedule"
	userService "github.com/cmlabs-hris/roster-backend-go/internal/service/user"
	"golang.org/x/time/rate"
)

// stores bundles one backend's repositories with its transactor.
type stores struct {
	tx             database.Transactor
	userRepo       user.UserRepository
	shiftRepo      schedule.ShiftRepository
	attendanceRepo attendance.AttendanceRepository
	close          func()
}

func openStores(cfg *config.Config) (stores, error) {
	if cfg.App.Store == config.StoreMemory {
		slog.Warn("Using in-memory store, data is lost on restart")
		store := memory.NewStore()
		return stores{
			tx:             store,
			userRepo:       memory.NewUserRepository(store),
			shiftRepo:      memory.NewShiftRepository(store),
			attendanceRepo: memory.NewAttendanceRepository(store),
			close:          func() {},
		}, nil
	}

	dsn := cfg.DatabaseURL()
	if err := database.Migrate(dsn); err != nil {
		return stores{}, fmt.Errorf("failed to migrate database: %w", err)
	}

	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		return stores{}, fmt.Errorf("failed to connect to database: %w", err)
	}

	return stores{
		tx:             postgresql.NewTransactor(db),
		userRepo:       postgresql.NewUserRepository(db),
		shiftRepo:      postgresql.NewShiftRepository(db),
		attendanceRepo: postgresql.NewAttendanceRepository(db),
		close:          db.Close,
	}, nil
}

func openReportCache(cfg *config.Config) (report.Cache, func()) {
	if cfg.Redis.Addr == "" {
		return report.NopCache{}, func() {}
	}

	rdb, err := redisRepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Warn("Weekly report cache disabled", "error", err)
		return report.NopCache{}, func() {}
	}

	slog.Info("Weekly report cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.ReportTTL)
	return redisRepo.NewReportCache(rdb, cfg.Redis.ReportTTL), func() { _ = rdb.Close() }
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	st, err := openStores(cfg)
	if err != nil {
		slog.Error("Error opening store", "error", err)
		os.Exit(1)
	}
	defer st.close()

	reportCache, closeCache := openReportCache(cfg)
	defer closeCache()

	clk := clock.System{}
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	authService := serviceAuth.NewAuthService(st.userRepo, JWTService)
	if cfg.Seed.AdminUsername != "" {
		if err := authService.EnsureAdmin(context.Background(), cfg.Seed.AdminUsername, cfg.Seed.AdminPassword); err != nil {
			slog.Error("Error seeding admin account", "error", err)
			os.Exit(1)
		}
	}

	scheduleSvc := scheduleService.NewScheduleService(st.tx, st.shiftRepo, st.userRepo, reportCache, clk)
	attendanceSvc := attendanceService.NewAttendanceService(st.tx, st.attendanceRepo, st.shiftRepo, reportCache, clk)
	reportSvc := reportService.NewReportService(st.tx, st.shiftRepo, st.attendanceRepo, st.userRepo, reportCache, clk)
	userSvc := userService.NewUserService(st.userRepo)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			AppName:        cfg.App.Name,
			Version:        cfg.App.Version,
			Env:            cfg.App.Env,
			AllowedOrigins: cfg.App.AllowedOrigins,
			ClockRate:      rate.Limit(float64(cfg.RateLimit.ClockPerMinute) / 60),
			ClockBurst:     cfg.RateLimit.ClockBurst,
		},
		JWTService,
		appHTTP.NewAuthHandler(authService),
		appHTTP.NewUserHandler(userSvc),
		appHTTP.NewScheduleHandler(scheduleSvc),
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewReportHandler(reportSvc),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", srv.Addr, "store", cfg.App.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("Shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
}
