package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestQueryWorkouts verifies the filter is encoded as query params and the
// JSON array response is parsed.
func TestQueryWorkouts(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if got := q.Get("start"); got != "2026-01-01T00:00:00Z" {
				t.Errorf("start=%q", got)
			}
			if got := q.Get("completed"); got != "true" {
				t.Errorf("completed=%q, want true", got)
			}
			if got := q.Get("order"); got != "desc" {
				t.Errorf("order=%q, want desc", got)
			}
			if got := q.Get("limit"); got != "5" {
				t.Errorf("limit=%q, want 5", got)
			}
			writeTestJSON(t, w, []models.WorkoutRecord{
				{ID: uuid.New(), UserID: 1, Name: "Pull Day", StartedAt: time.Date(2026, 1, 3, 18, 0, 0, 0, time.UTC)},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	workouts, err := client.QueryWorkouts(context.Background(), 1, storage.RecordFilter{
		Start: &start, CompletedOnly: true, Descending: true, Limit: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(workouts) != 1 || workouts[0].Name != "Pull Day" {
		t.Errorf("workouts = %+v", workouts)
	}
}

// TestQueryExerciseLogsByWorkout sends the workout id and exercise name.
func TestQueryExerciseLogsByWorkout(t *testing.T) {
	id := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercise-logs": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("workout_id"); got != id.String() {
				t.Errorf("workout_id=%q, want %s", got, id)
			}
			if got := r.URL.Query().Get("exercise"); got != "Bench Press" {
				t.Errorf("exercise=%q, want Bench Press", got)
			}
			if r.URL.Query().Has("start") {
				t.Error("start should not be sent")
			}
			writeTestJSON(t, w, []models.ExerciseLogRecord{{ID: uuid.New(), WorkoutID: id, ExerciseName: "Bench Press", SetNumber: 1}})
		},
	})
	defer ts.Close()

	logs, err := NewHTTPClient(ts.URL).QueryExerciseLogs(context.Background(), 1, storage.RecordFilter{WorkoutID: &id, Exercise: "Bench Press"})
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].WorkoutID != id {
		t.Errorf("logs = %+v", logs)
	}
}

// TestGetProfile verifies the client correctly parses a single struct response.
func TestGetProfile(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/profile": func(w http.ResponseWriter, _ *http.Request) {
			writeTestJSON(t, w, models.Profile{UserID: 1, WeightUnit: "lbs", HeightUnit: "ft"})
		},
	})
	defer ts.Close()

	p, err := NewHTTPClient(ts.URL+"/").GetProfile(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.WeightUnit != "lbs" || p.HeightUnit != "ft" {
		t.Errorf("profile = %+v", p)
	}
}

// TestListExercises verifies the library search params.
func TestListExercises(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("muscle_group"); got != "Chest" {
				t.Errorf("muscle_group=%q, want Chest", got)
			}
			if got := r.URL.Query().Get("q"); got != "press" {
				t.Errorf("q=%q, want press", got)
			}
			writeTestJSON(t, w, []models.Exercise{{ID: uuid.New(), Name: "Bench Press", MuscleGroup: "Chest"}})
		},
	})
	defer ts.Close()

	exercises, err := NewHTTPClient(ts.URL).ListExercises(context.Background(), "Chest", "press")
	if err != nil {
		t.Fatal(err)
	}
	if len(exercises) != 1 {
		t.Fatalf("got %d exercises, want 1", len(exercises))
	}
}

// TestGetTrainingSummary verifies the training-summary endpoint.
func TestGetTrainingSummary(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/training-summary": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("bucket"); got != "month" {
				t.Errorf("bucket=%q, want month", got)
			}
			writeTestJSON(t, w, []storage.TrainingSummaryPeriod{
				{Period: "2026-01", Workouts: 12, Sets: 240},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	periods, err := client.GetTrainingSummary(context.Background(), 1, start, end, "month")
	if err != nil {
		t.Fatal(err)
	}
	if len(periods) != 1 || periods[0].Workouts != 12 {
		t.Fatalf("periods = %+v", periods)
	}
}

// TestHTTPClientServerError verifies the client returns an error on non-200 responses.
func TestHTTPClientServerError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/measurements": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"database down"}`))
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	_, err := client.QueryBodyMeasurements(context.Background(), 1, storage.RecordFilter{})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}
