package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/geocoder89/bookinghub/internal/auth"
	"github.com/geocoder89/bookinghub/internal/domain/appointment"
	"github.com/geocoder89/bookinghub/internal/domain/booking"
	"github.com/geocoder89/bookinghub/internal/domain/job"
	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/geocoder89/bookinghub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// keep gin quiet during tests
func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAuthn hands out identity for any header; a zero identity behaves like
// a request without a token.
type fakeAuthn struct {
	identity user.PublicUser
}

func (f fakeAuthn) Authenticate(_ context.Context, _ string) (user.PublicUser, error) {
	if f.identity.ID == "" {
		return user.PublicUser{}, &auth.Error{Kind: auth.KindMissingToken}
	}
	return f.identity, nil
}

func as(u user.PublicUser) gin.HandlerFunc {
	return middlewares.NewAuthMiddleware(fakeAuthn{identity: u}, quietLogger(), nil).RequireAuth()
}

func maybeAs(u user.PublicUser) gin.HandlerFunc {
	return middlewares.NewAuthMiddleware(fakeAuthn{identity: u}, quietLogger(), nil).OptionalAuth()
}

func guest() gin.HandlerFunc {
	return maybeAs(user.PublicUser{})
}

// setupRouter mounts one handler behind the central error handler.
func setupRouter(method, path string, h gin.HandlerFunc, mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.ErrorHandler(quietLogger()))
	r.Handle(method, path, append(mw, h)...)
	return r
}

func doJSON(r http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer test-token")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type errorResponse struct {
	Message string              `json:"message"`
	Details map[string][]string `json:"details"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func publicUser(role user.Role) user.PublicUser {
	return user.PublicUser{
		ID:     uuid.NewString(),
		Email:  strings.ToLower(string(role)) + "@example.com",
		Name:   "Test " + string(role),
		Role:   role,
		Active: true,
	}
}

// fakeJobs records every enqueue, inside or outside a transaction.
type fakeJobs struct {
	mu      sync.Mutex
	created []job.CreateRequest
	inTx    []job.CreateRequest
	err     error

	getFn   func(ctx context.Context, id string) (job.Job, error)
	retryFn func(ctx context.Context, id string) error
}

func (f *fakeJobs) Create(_ context.Context, req job.CreateRequest) (job.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return job.Job{}, f.err
	}
	f.created = append(f.created, req)
	return job.New(req), nil
}

func (f *fakeJobs) CreateTx(_ context.Context, _ pgx.Tx, req job.CreateRequest) (job.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return job.Job{}, f.err
	}
	f.inTx = append(f.inTx, req)
	return job.New(req), nil
}

func (f *fakeJobs) GetByID(ctx context.Context, id string) (job.Job, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return job.Job{}, job.ErrJobNotFound
}

func (f *fakeJobs) Retry(ctx context.Context, id string) error {
	if f.retryFn != nil {
		return f.retryFn(ctx, id)
	}
	return nil
}

// fakeTx satisfies pgx.Tx; only Commit and Rollback are ever called.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (tx *fakeTx) Commit(context.Context) error {
	if tx.commitErr != nil {
		return tx.commitErr
	}
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	if tx.committed {
		return pgx.ErrTxClosed
	}
	tx.rolledBack = true
	return nil
}

type fakeTypes struct {
	mu    sync.Mutex
	items map[string]appointment.Type
	gets  int
}

func newFakeTypes(types ...appointment.Type) *fakeTypes {
	f := &fakeTypes{items: map[string]appointment.Type{}}
	for _, t := range types {
		f.items[t.ID] = t
	}
	return f
}

func (f *fakeTypes) Create(_ context.Context, req appointment.CreateRequest) (appointment.Type, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := appointment.NewFromCreateRequest(req)
	f.items[t.ID] = t
	return t, nil
}

func (f *fakeTypes) GetByID(_ context.Context, id string) (appointment.Type, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	t, ok := f.items[id]
	if !ok {
		return appointment.Type{}, appointment.ErrNotFound
	}
	return t, nil
}

func (f *fakeTypes) ListActive(_ context.Context) ([]appointment.Type, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []appointment.Type{}
	for _, t := range f.items {
		if t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTypes) ListByOrganiser(_ context.Context, organiserID string) ([]appointment.Type, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []appointment.Type{}
	for _, t := range f.items {
		if t.OrganiserID == organiserID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTypes) Update(_ context.Context, t appointment.Type) (appointment.Type, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[t.ID]; !ok {
		return appointment.Type{}, appointment.ErrNotFound
	}
	f.items[t.ID] = t
	return t, nil
}

func (f *fakeTypes) Deactivate(_ context.Context, id string) (appointment.Type, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return appointment.Type{}, appointment.ErrNotFound
	}
	t.Active = false
	f.items[id] = t
	return t, nil
}

func (f *fakeTypes) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

type fakeBookings struct {
	mu    sync.Mutex
	items map[string]booking.Booking
	types *fakeTypes
	tx    *fakeTx
}

func newFakeBookings(types *fakeTypes, bookings ...booking.Booking) *fakeBookings {
	f := &fakeBookings{items: map[string]booking.Booking{}, types: types}
	for _, b := range bookings {
		f.items[b.ID] = b
	}
	return f
}

func (f *fakeBookings) BeginTx(context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

func (f *fakeBookings) CreateTx(_ context.Context, _ pgx.Tx, b booking.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[b.ID] = b
	return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (booking.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.items[id]
	if !ok {
		return booking.Booking{}, booking.ErrNotFound
	}
	return b, nil
}

func (f *fakeBookings) ListByCustomer(_ context.Context, customerID string) ([]booking.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []booking.Booking{}
	for _, b := range f.items {
		if b.OwnedBy(customerID) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookings) ListByOrganiser(ctx context.Context, organiserID string) ([]booking.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []booking.Booking{}
	for _, b := range f.items {
		t, ok := f.types.items[b.AppointmentTypeID]
		if ok && t.OrganiserID == organiserID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id string, status booking.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.items[id]
	if !ok {
		return booking.ErrNotFound
	}
	b.Status = status
	f.items[id] = b
	return nil
}

func (f *fakeBookings) MarkPaid(_ context.Context, id, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.items[id]
	if !ok || b.PaymentStatus == booking.PaymentPaid {
		return booking.ErrAlreadyPaid
	}
	b.PaymentStatus = booking.PaymentPaid
	b.PaymentRef = &ref
	b.Status = booking.StatusConfirmed
	f.items[id] = b
	return nil
}

func (f *fakeBookings) CountByStatus(_ context.Context) (map[booking.Status]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[booking.Status]int{}
	for _, b := range f.items {
		out[b.Status]++
	}
	return out, nil
}

func errorHandler() gin.HandlerFunc {
	return middlewares.ErrorHandler(quietLogger())
}
