package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/bookinghub/internal/auth"
	"github.com/geocoder89/bookinghub/internal/config"
	"github.com/geocoder89/bookinghub/internal/db"
	"github.com/geocoder89/bookinghub/internal/domain/user"
	apphttp "github.com/geocoder89/bookinghub/internal/http"
	"github.com/geocoder89/bookinghub/internal/notifications"
	"github.com/geocoder89/bookinghub/internal/queue/worker"
	"github.com/geocoder89/bookinghub/internal/repo/postgres"
	"github.com/geocoder89/bookinghub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a migrated database; they skip unless TEST_DB_DSN is set.

type recordingNotifier struct {
	mu       sync.Mutex
	bookings []notifications.BookingConfirmationInput
}

func (n *recordingNotifier) SendBookingConfirmation(_ context.Context, in notifications.BookingConfirmationInput) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bookings = append(n.bookings, in)
	return nil
}

func (n *recordingNotifier) SendVerificationEmail(context.Context, notifications.VerificationEmailInput) error {
	return nil
}

func (n *recordingNotifier) SendPasswordReset(context.Context, notifications.PasswordResetInput) error {
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.bookings)
}

type pipeline struct {
	router http.Handler
	pool   *pgxpool.Pool
	users  *postgres.UsersRepo
	jobs   *postgres.JobsRepo
	tokens *auth.Manager
}

func setupPipeline(t *testing.T) pipeline {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE jobs, bookings, appointment_types, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	cfg := config.Config{
		Env:             "test",
		JWTSecret:       "integration-secret",
		LoginRateLimit:  100,
		LoginRateWindow: time.Minute,
		CacheTTL:        time.Second,
		MaxBodyBytes:    1 << 20,
	}

	tokens, err := auth.NewManager(cfg.JWTSecret, time.Hour)
	require.NoError(t, err)

	users := postgres.NewUsersRepo(pool, nil)
	jobsRepo := postgres.NewJobsRepo(pool, nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := apphttp.NewRouter(logger, apphttp.Deps{
		Users:    users,
		Types:    postgres.NewAppointmentTypesRepo(pool, nil),
		Bookings: postgres.NewBookingsRepo(pool, nil),
		Jobs:     jobsRepo,
		Tokens:   tokens,
		DB:       pool,
	}, cfg)

	return pipeline{router: router, pool: pool, users: users, jobs: jobsRepo, tokens: tokens}
}

func (p pipeline) post(t *testing.T, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, req)
	return rec
}

func TestPipeline_GuestBooking_EnqueuesJob_WorkerSendsOnce(t *testing.T) {
	p := setupPipeline(t)
	ctx := context.Background()

	hash, err := security.HashPassword("organiser-pass")
	require.NoError(t, err)
	organiser, err := p.users.Create(ctx, "org@example.com", hash, "Organiser", user.RoleOrganiser)
	require.NoError(t, err)
	orgToken, err := p.tokens.Issue(auth.AccessClaims(organiser))
	require.NoError(t, err)

	rec := p.post(t, "/api/v1/appointment-types", `{"title":"Intro call","durationMinutes":30,"priceCents":0}`, orgToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var apt struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apt))

	start := time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339)
	rec = p.post(t, "/api/v1/bookings",
		`{"appointmentTypeId":"`+apt.ID+`","startAt":"`+start+`","name":"Guest","email":"guest@example.com"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var b struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))

	var status string
	err = p.pool.QueryRow(ctx,
		`SELECT status FROM jobs WHERE type = 'booking.confirmation' AND idempotency_key = $1`,
		"booking:confirm:"+b.ID).Scan(&status)
	require.NoError(t, err)
	assert.Equal(t, "pending", status)

	notifier := &recordingNotifier{}
	wk := worker.New(worker.Config{WorkerID: "test-worker", Concurrency: 1}, p.jobs, notifier,
		slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	claimed, err := wk.ProcessOne(ctx, "test-worker")
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = wk.ProcessOne(ctx, "test-worker")
	require.NoError(t, err)
	assert.False(t, claimed, "queue should be empty after one delivery")

	assert.Equal(t, 1, notifier.count())

	err = p.pool.QueryRow(ctx,
		`SELECT status FROM jobs WHERE idempotency_key = $1`, "booking:confirm:"+b.ID).Scan(&status)
	require.NoError(t, err)
	assert.Equal(t, "done", status)
}
