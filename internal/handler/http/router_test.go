package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/roster-backend-go/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/roster-backend-go/internal/service/attendance"
	authService "github.com/cmlabs-hris/roster-backend-go/internal/service/auth"
	reportService "github.com/cmlabs-hris/roster-backend-go/internal/service/report"
	scheduleService "github.com/cmlabs-hris/roster-backend-go/internal/service/schedule"
	userService "github.com/cmlabs-hris/roster-backend-go/internal/service/user"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type testServer struct {
	router *chi.Mux
	clock  *testClock
}

func newTestServer(t *testing.T, opts RouterOptions) *testServer {
	t.Helper()

	store := memory.NewStore()
	userRepo := memory.NewUserRepository(store)
	shiftRepo := memory.NewShiftRepository(store)
	attendanceRepo := memory.NewAttendanceRepository(store)
	clk := &testClock{now: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)}
	jwtService := jwt.NewJWTService("handler-test-secret", "1h")

	auth := authService.NewAuthService(userRepo, jwtService)
	require.NoError(t, auth.EnsureAdmin(context.Background(), "admin", "admin-password"))

	cache := report.NopCache{}
	router := NewRouter(
		opts,
		jwtService,
		NewAuthHandler(auth),
		NewUserHandler(userService.NewUserService(userRepo)),
		NewScheduleHandler(scheduleService.NewScheduleService(store, shiftRepo, userRepo, cache, clk)),
		NewAttendanceHandler(attendanceService.NewAttendanceService(store, attendanceRepo, shiftRepo, cache, clk)),
		NewReportHandler(reportService.NewReportService(store, shiftRepo, attendanceRepo, userRepo, cache, clk)),
	)

	return &testServer{router: router, clock: clk}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}

	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), rec.Body.String())
	}
	return env
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var token struct {
		AccessToken string `json:"access_token"`
	}
	decodeEnvelope(t, rec, &token)
	require.NotEmpty(t, token.AccessToken)
	return token.AccessToken
}

// signup registers a staff account and returns its id and token.
func (s *testServer) signup(t *testing.T, username string) (string, string) {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"username": username,
		"password": "staff-password",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	decodeEnvelope(t, rec, &created)
	assert.Equal(t, "staff", created.Role)

	return created.ID, s.login(t, username, "staff-password")
}

func TestAuthEndpoints(t *testing.T) {
	srv := newTestServer(t, RouterOptions{Env: "test"})

	srv.signup(t, "bob")

	t.Run("duplicate signup", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
			"username": "bob",
			"password": "another-password",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("signup validation", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
			"username": "x",
			"password": "short",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		env := decodeEnvelope(t, rec, nil)
		require.NotNil(t, env.Error)
		assert.Contains(t, env.Error.Details, "username")
		assert.Contains(t, env.Error.Details, "password")
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"username": "bob",
			"password": "not-the-password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProtectedRoutes(t *testing.T) {
	srv := newTestServer(t, RouterOptions{Env: "test"})
	_, staffToken := srv.signup(t, "bob")
	adminToken := srv.login(t, "admin", "admin-password")

	t.Run("missing token", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/v1/roster?start=2024-01-01&end=2024-01-07", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("staff cannot schedule", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/v1/admin/shifts", staffToken, map[string]string{
			"user_id": "whoever",
			"date":    "2024-01-01",
			"start":   "09:00",
			"end":     "17:00",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("staff cannot list users", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/v1/users", staffToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin lists users", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/v1/users", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var users []struct {
			Username string `json:"username"`
		}
		decodeEnvelope(t, rec, &users)
		require.Len(t, users, 2)
		assert.Equal(t, "admin", users[0].Username)
		assert.Equal(t, "bob", users[1].Username)
	})
}

func TestScheduleAttendanceAndReportFlow(t *testing.T) {
	srv := newTestServer(t, RouterOptions{Env: "test"})
	bobID, bobToken := srv.signup(t, "bob")
	carolID, carolToken := srv.signup(t, "carol")
	adminToken := srv.login(t, "admin", "admin-password")

	rec := srv.do(t, http.MethodPost, "/api/v1/admin/shifts/bulk", adminToken, map[string]interface{}{
		"user_id":    bobID,
		"week_start": "2024-01-01",
		"daily_windows": map[string][]string{
			"0": {"09:00", "17:00"},
			"2": {"10:00", "14:00"},
			"4": {"18:00", "08:00"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var week schedule.ScheduleWeekResponse
	decodeEnvelope(t, rec, &week)
	require.Len(t, week.Created, 2)
	require.Len(t, week.Skipped, 1)
	assert.Equal(t, "start must be before end", week.Skipped[0].Reason)
	mondayShift := week.Created[0]
	assert.Equal(t, "2024-01-01", mondayShift.Date)

	t.Run("single shift overlap", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/v1/admin/shifts", adminToken, map[string]string{
			"user_id": bobID,
			"date":    "2024-01-01",
			"start":   "12:00",
			"end":     "13:00",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		env := decodeEnvelope(t, rec, nil)
		assert.Equal(t, "INVALID_SHIFT", env.Error.Code)
	})

	t.Run("get shift", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/v1/shifts/"+mondayShift.ID, bobToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got schedule.ShiftResponse
		decodeEnvelope(t, rec, &got)
		assert.Equal(t, mondayShift.ID, got.ID)
		assert.Equal(t, 8.0, got.ScheduledHours)

		rec = srv.do(t, http.MethodGet, "/api/v1/shifts/missing", bobToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("roster", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/v1/roster?start=2024-01-01&end=2024-01-07&user_id="+bobID, carolToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var roster []schedule.ShiftResponse
		decodeEnvelope(t, rec, &roster)
		require.Len(t, roster, 2)
		assert.Equal(t, "2024-01-01", roster[0].Date)
		assert.Equal(t, "2024-01-03", roster[1].Date)

		rec = srv.do(t, http.MethodGet, "/api/v1/roster?start=2024-01-07&end=2024-01-01", carolToken, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("roster ics", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/v1/roster.ics?start=2024-01-01&end=2024-01-07", bobToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "roster-2024-01-01-2024-01-07.ics")
		assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
	})

	t.Run("attendance", func(t *testing.T) {
		clockBody := map[string]string{"shift_id": mondayShift.ID}

		rec := srv.do(t, http.MethodGet, "/api/v1/attendance?shift_id="+mondayShift.ID, bobToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var status struct {
			Status string `json:"status"`
		}
		decodeEnvelope(t, rec, &status)
		assert.Equal(t, "not_started", status.Status)

		rec = srv.do(t, http.MethodPost, "/api/v1/attendance/clock-in", carolToken, clockBody)
		assert.Equal(t, http.StatusForbidden, rec.Code, "carol does not own the shift")

		rec = srv.do(t, http.MethodPost, "/api/v1/attendance/clock-in", carolToken, map[string]string{
			"user_id":  bobID,
			"shift_id": mondayShift.ID,
		})
		assert.Equal(t, http.StatusForbidden, rec.Code, "staff cannot act for another user")

		rec = srv.do(t, http.MethodPost, "/api/v1/attendance/clock-out", bobToken, clockBody)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		srv.clock.Set(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
		rec = srv.do(t, http.MethodPost, "/api/v1/attendance/clock-in", bobToken, clockBody)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = srv.do(t, http.MethodPost, "/api/v1/attendance/clock-in", bobToken, clockBody)
		assert.Equal(t, http.StatusConflict, rec.Code)

		srv.clock.Set(time.Date(2024, 1, 1, 16, 30, 0, 0, time.UTC))
		rec = srv.do(t, http.MethodPost, "/api/v1/attendance/clock-out", bobToken, clockBody)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var out struct {
			Status      string   `json:"status"`
			WorkedHours *float64 `json:"worked_hours"`
		}
		decodeEnvelope(t, rec, &out)
		assert.Equal(t, "clocked_out", out.Status)
		require.NotNil(t, out.WorkedHours)
		assert.Equal(t, 7.5, *out.WorkedHours)

		rec = srv.do(t, http.MethodPost, "/api/v1/attendance/clock-out", bobToken, clockBody)
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = srv.do(t, http.MethodGet, "/api/v1/attendance?shift_id="+mondayShift.ID+"&user_id="+bobID, adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decodeEnvelope(t, rec, &status)
		assert.Equal(t, "clocked_out", status.Status)
	})

	t.Run("weekly report", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/v1/admin/reports/weekly?week_start=2024-01-01", bobToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = srv.do(t, http.MethodGet, "/api/v1/admin/reports/weekly?week_start=2024-01-01", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var weekly report.WeeklyReport
		decodeEnvelope(t, rec, &weekly)
		assert.Equal(t, "2024-01-07", weekly.WeekEnd)
		require.Contains(t, weekly.TotalsPerUser, bobID)
		assert.Equal(t, 12.0, weekly.TotalsPerUser[bobID].ScheduledHours)
		assert.Equal(t, 7.5, weekly.TotalsPerUser[bobID].WorkedHours)
		assert.NotContains(t, weekly.TotalsPerUser, carolID)
		require.Len(t, weekly.Shifts, 2)
		assert.Equal(t, "clocked_out", weekly.Shifts[0].Status)
		assert.Equal(t, "not_started", weekly.Shifts[1].Status)

		rec = srv.do(t, http.MethodGet, "/api/v1/admin/reports/weekly?week_start=Jan-1", adminToken, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("weekly report export", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/v1/admin/reports/weekly/export?week_start=2024-01-01", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "weekly-report-2024-01-01.xlsx")
		assert.NotEmpty(t, rec.Body.Bytes())
	})
}

func TestClockEndpointsAreRateLimited(t *testing.T) {
	srv := newTestServer(t, RouterOptions{Env: "test", ClockRate: rate.Limit(0.001), ClockBurst: 1})
	_, bobToken := srv.signup(t, "bob")

	rec := srv.do(t, http.MethodPost, "/api/v1/attendance/clock-in", bobToken, map[string]string{"shift_id": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/attendance/clock-in", bobToken, map[string]string{"shift_id": "missing"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/attendance?shift_id=missing", bobToken, nil)
	assert.NotEqual(t, http.StatusTooManyRequests, rec.Code, "reads are not limited")
}
