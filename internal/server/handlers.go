package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progress"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleHAEIngest(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var payload models.HAEPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	start := time.Now()
	result, err := s.hae.Ingest(r.Context(), &payload, uid)
	s.logImport(uid, "hae_rest", result, err, int(time.Since(start).Milliseconds()))
	if err != nil {
		s.log.Error("ingest error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAlphaIngest(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start := time.Now()
	result, err := s.alpha.Ingest(r.Context(), r.Body, uid)
	s.logImport(uid, "alpha_rest", result, err, int(time.Since(start).Milliseconds()))
	if err != nil {
		s.log.Error("alpha ingest error", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleQueryWorkouts(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	f, err := parseRecordFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	workouts, err := s.db.QueryWorkouts(r.Context(), uid, f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(workouts))
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	workoutID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	detail, err := s.db.GetWorkout(r.Context(), workoutID, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	workoutID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.db.DeleteWorkout(r.Context(), workoutID, uid); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQueryExerciseLogs(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	f, err := parseRecordFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	logs, err := s.db.QueryExerciseLogs(r.Context(), uid, f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(logs))
}

func (s *Server) handleQueryMeasurements(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	f, err := parseRecordFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ms, err := s.db.QueryBodyMeasurements(r.Context(), uid, f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(ms))
}

// measurementRequest is a weigh-in in the user's display units.
type measurementRequest struct {
	MeasuredAt *time.Time `json:"measured_at"`
	Weight     *float64   `json:"weight"`
	BodyFatPct *float64   `json:"body_fat_percentage"`
	Waist      *float64   `json:"waist"`
	Notes      string     `json:"notes"`
}

func (s *Server) handleCreateMeasurement(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req measurementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Weight == nil && req.BodyFatPct == nil && req.Waist == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weight, body_fat_percentage or waist required"})
		return
	}
	prefs, err := s.progress.Preferences(r.Context(), uid)
	if err != nil {
		s.writeError(w, err)
		return
	}

	m := models.BodyMeasurementRecord{
		ID:         uuid.New(),
		UserID:     uid,
		MeasuredAt: time.Now().UTC(),
		BodyFatPct: req.BodyFatPct,
		Notes:      req.Notes,
	}
	if req.MeasuredAt != nil {
		m.MeasuredAt = *req.MeasuredAt
	}
	if req.Weight != nil {
		kg, err := metrics.ConvertMass(*req.Weight, prefs.Mass, metrics.Kilograms)
		if err != nil {
			s.writeError(w, err)
			return
		}
		m.WeightKg = &kg
	}
	if req.Waist != nil {
		cm, err := metrics.ConvertLength(*req.Waist, prefs.Length, metrics.Centimeters)
		if err != nil {
			s.writeError(w, err)
			return
		}
		m.WaistCm = &cm
	}
	if _, err := s.db.InsertBodyMeasurements(r.Context(), []models.BodyMeasurementRecord{m}); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleTrainingSummary(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	bucket := r.URL.Query().Get("bucket")
	if bucket == "" {
		bucket = "week"
	}
	periods, err := s.db.GetTrainingSummary(r.Context(), uid, start, end, bucket)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(periods))
}

func (s *Server) handleExerciseProgression(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	exercise := r.URL.Query().Get("exercise")
	if exercise == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise parameter required"})
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	points, err := s.db.GetExerciseProgression(r.Context(), uid, start, end, exercise)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(points))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Anything unknown is a 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrNothingCompleted):
		status = http.StatusConflict
	case errors.Is(err, metrics.ErrMalformedInput), errors.Is(err, metrics.ErrUnknownUnit):
		status = http.StatusBadRequest
	case errors.Is(err, progress.ErrUnsupported):
		status = http.StatusNotImplemented
	default:
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// nonNil makes empty query results encode as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// parseFlexTime accepts RFC3339 or a date. A date-only end bound is
// moved to the end of that day.
func parseFlexTime(s string, isEnd bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", s)
	}
	if isEnd {
		t = t.Add(24 * time.Hour)
	}
	return t, nil
}

// parseTimeRange reads start/end, defaulting to the last 7 days.
func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	end = time.Now()
	if endStr != "" {
		if end, err = parseFlexTime(endStr, true); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if startStr == "" {
		return end.AddDate(0, 0, -7), end, nil
	}
	if start, err = parseFlexTime(startStr, false); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// parseRecordFilter reads the record query parameters. Absent parameters
// leave the filter open.
func parseRecordFilter(r *http.Request) (storage.RecordFilter, error) {
	q := r.URL.Query()
	var f storage.RecordFilter
	if v := q.Get("start"); v != "" {
		t, err := parseFlexTime(v, false)
		if err != nil {
			return f, err
		}
		f.Start = &t
	}
	if v := q.Get("end"); v != "" {
		t, err := parseFlexTime(v, true)
		if err != nil {
			return f, err
		}
		f.End = &t
	}
	if v := q.Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("invalid completed %q", v)
		}
		f.CompletedOnly = b
	}
	for _, v := range q["workout_id"] {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, fmt.Errorf("invalid workout_id %q", v)
		}
		f.WorkoutIDs = append(f.WorkoutIDs, id)
	}
	if len(f.WorkoutIDs) == 1 {
		f.WorkoutID = &f.WorkoutIDs[0]
		f.WorkoutIDs = nil
	}
	f.Exercise = q.Get("exercise")
	switch q.Get("order") {
	case "", "asc":
	case "desc":
		f.Descending = true
	default:
		return f, fmt.Errorf("invalid order %q", q.Get("order"))
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid limit %q", v)
		}
		f.Limit = n
	}
	return f, nil
}
