// Package httpapi exposes the record-created and scheduled-job triggers over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
	"github.com/ykvlv/daily-report-notifier/internal/tracker"
)

// Tracker is the flow surface the handlers drive.
type Tracker interface {
	HandleRecordCreated(ctx context.Context, rec domain.ActivityRecord) (tracker.Report, error)
	Progress(ctx context.Context, userID string, ref time.Time) (tracker.Report, error)
	RunJob(ctx context.Context, job tracker.JobName) (tracker.ScanReport, error)
}

// Store persists the documents the triggers receive.
type Store interface {
	UpsertUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	InsertRecord(ctx context.Context, r *domain.ActivityRecord) error
}

// Handler holds handler dependencies.
type Handler struct {
	tracker Tracker
	store   Store
	log     *zap.Logger
	now     func() time.Time
}

func NewHandler(t Tracker, st Store, log *zap.Logger) *Handler {
	return &Handler{tracker: t, store: st, log: log.Named("http"), now: time.Now}
}

// NewRouter creates the chi router with middleware and routes.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(h.recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route("/v1", func(r chi.Router) {
		r.Post("/records/{collection}", h.CreateRecord)
		r.Put("/users/{userID}", h.PutUser)
		r.Get("/users/{userID}/completion", h.GetCompletion)
		r.Post("/jobs/{job}", h.RunJob)
	})
	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// recoverer logs panics through zap instead of crashing the process.
func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.log.Error("handler panicked",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
