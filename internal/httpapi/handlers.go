package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
	"github.com/ykvlv/daily-report-notifier/internal/store"
	"github.com/ykvlv/daily-report-notifier/internal/tracker"
)

type recordRequest struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	RecordType   string     `json:"record_type"`
	ActivityType string     `json:"activity_type"`
	CreatedAt    *time.Time `json:"created_at"`
}

type recordResponse struct {
	RecordID string         `json:"record_id"`
	Report   tracker.Report `json:"report"`
}

// CreateRecord persists a new record and runs the record-created flow.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	coll, err := domain.ParseCollection(chi.URLParam(r, "collection"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	rec := domain.ActivityRecord{
		ID:         req.ID,
		UserID:     req.UserID,
		Collection: coll,
		CreatedAt:  h.now().UTC(),
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if req.CreatedAt != nil {
		rec.CreatedAt = req.CreatedAt.UTC()
	}
	switch coll {
	case domain.CollectionTimeRecords:
		rec.RecordType = req.RecordType
	case domain.CollectionActivities:
		rec.ActivityType = req.ActivityType
	}
	if rec.RawType() == "" {
		writeError(w, http.StatusBadRequest, "record kind is required")
		return
	}

	if err := h.store.InsertRecord(r.Context(), &rec); err != nil {
		h.log.Error("insert record failed", zap.Error(err), zap.String("user", rec.UserID))
		writeError(w, http.StatusInternalServerError, "could not store record")
		return
	}

	rep, err := h.tracker.HandleRecordCreated(r.Context(), rec)
	if err != nil {
		h.log.Error("completion check failed", zap.Error(err), zap.String("record", rec.ID))
		writeError(w, http.StatusInternalServerError, "completion check failed")
		return
	}
	writeJSON(w, http.StatusCreated, recordResponse{RecordID: rec.ID, Report: rep})
}

type userRequest struct {
	Role        string `json:"role"`
	Username    string `json:"username"`
	TeacherID   string `json:"teacher_id"`
	GuardianID  string `json:"guardian_id"`
	PushAddress string `json:"push_address"`
}

// PutUser creates or replaces a user profile.
func (h *Handler) PutUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	u := &domain.User{
		ID:          chi.URLParam(r, "userID"),
		Role:        role,
		Username:    req.Username,
		TeacherID:   req.TeacherID,
		GuardianID:  req.GuardianID,
		PushAddress: req.PushAddress,
	}
	if role != domain.RoleStudent && (u.TeacherID != "" || u.GuardianID != "") {
		writeError(w, http.StatusBadRequest, "only students link to a teacher or guardian")
		return
	}
	if err := h.store.UpsertUser(r.Context(), u); err != nil {
		h.log.Error("upsert user failed", zap.Error(err), zap.String("user", u.ID))
		writeError(w, http.StatusInternalServerError, "could not store user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCompletion reports today's progress of a user.
func (h *Handler) GetCompletion(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if _, err := h.store.GetUser(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error("lookup user failed", zap.Error(err), zap.String("user", userID))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	rep, err := h.tracker.Progress(r.Context(), userID, h.now())
	if err != nil {
		h.log.Error("progress failed", zap.Error(err), zap.String("user", userID))
		writeError(w, http.StatusInternalServerError, "evaluation failed")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// RunJob runs a scheduled scan immediately.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	job, err := tracker.ParseJob(chi.URLParam(r, "job"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	rep, err := h.tracker.RunJob(r.Context(), job)
	if err != nil {
		h.log.Error("job failed", zap.Error(err), zap.String("job", string(job)))
		writeJSON(w, http.StatusBadGateway, struct {
			errorBody
			Report tracker.ScanReport `json:"report"`
		}{errorBody{Error: err.Error()}, rep})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
