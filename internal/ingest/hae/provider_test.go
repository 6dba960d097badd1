package hae

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/models"
)

type fakeStore struct {
	measurements []models.BodyMeasurementRecord
	workouts     []models.WorkoutRecord
}

func (f *fakeStore) UpsertWorkout(_ context.Context, w models.WorkoutRecord, logs []models.ExerciseLogRecord) (int64, error) {
	f.workouts = append(f.workouts, w)
	return int64(len(logs)), nil
}

func (f *fakeStore) InsertBodyMeasurements(_ context.Context, ms []models.BodyMeasurementRecord) (int64, error) {
	f.measurements = append(f.measurements, ms...)
	return int64(len(ms)), nil
}

const payloadJSON = `{
  "data": {
    "metrics": [
      {"name": "weight_body_mass", "units": "lb", "data": [
        {"date": "2026-03-01 07:00:00 +0100", "qty": 176.37},
        {"date": "2026-03-02 07:00:00 +0100", "qty": 175.0}
      ]},
      {"name": "body_fat_percentage", "units": "%", "data": [
        {"date": "2026-03-01 07:00:00 +0100", "qty": 18.5}
      ]},
      {"name": "step_count", "units": "count", "data": [
        {"date": "2026-03-01 00:00:00 +0100", "qty": 9000}
      ]}
    ],
    "workouts": [
      {"id": "A1B2", "name": "Traditional Strength Training",
       "start": "2026-03-01 18:00:00 +0100", "end": "2026-03-01 18:55:00 +0100", "duration": 3300},
      {"id": "", "name": "Broken"}
    ]
  }
}`

func decode(t *testing.T) *models.HAEPayload {
	t.Helper()
	var p models.HAEPayload
	if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return &p
}

// TestKind maps supported metric names.
func TestKind(t *testing.T) {
	if Kind("weight_body_mass") != KindBodyMass {
		t.Error("weight_body_mass should be body mass")
	}
	if Kind("body_fat_percentage") != KindBodyFat {
		t.Error("body_fat_percentage should be body fat")
	}
	if Kind("heart_rate") != KindUnsupported {
		t.Error("heart_rate should be unsupported")
	}
}

// TestIngestMergesMeasurementsAndConvertsPounds stores one row per timestamp in kg.
func TestIngestMergesMeasurementsAndConvertsPounds(t *testing.T) {
	store := &fakeStore{}
	p := NewProvider(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	res, err := p.Ingest(context.Background(), decode(t), 1)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(store.measurements) != 2 {
		t.Fatalf("measurements = %d, want 2", len(store.measurements))
	}
	first := store.measurements[0]
	if first.WeightKg == nil {
		t.Fatal("first weight missing")
	}
	if math.Abs(*first.WeightKg-80.0) > 0.01 {
		t.Errorf("first weight = %.3f, want ~80 kg", *first.WeightKg)
	}
	if first.BodyFatPct == nil || *first.BodyFatPct != 18.5 {
		t.Errorf("first body fat = %v, want 18.5", first.BodyFatPct)
	}
	if store.measurements[1].BodyFatPct != nil {
		t.Error("second measurement should have no body fat")
	}
	if res.MeasurementsReceived != 3 || res.MeasurementsInserted != 2 {
		t.Errorf("measurement counts = %+v", res)
	}
	if res.MetricsRejected != 1 || len(res.RejectedNames) != 1 || res.RejectedNames[0] != "step_count" {
		t.Errorf("rejected = %d %v", res.MetricsRejected, res.RejectedNames)
	}
	if res.Message == "" {
		t.Error("expected message about rejected metrics")
	}

	if res.WorkoutsReceived != 2 || res.WorkoutsStored != 1 {
		t.Errorf("workout counts = %+v", res)
	}
	w := store.workouts[0]
	if !w.Completed() || w.DurationSec == nil || *w.DurationSec != 3300 {
		t.Errorf("workout = %+v", w)
	}
}

// TestWorkoutIDStablePerUser derives the same id for the same export id.
func TestWorkoutIDStablePerUser(t *testing.T) {
	hw := decode(t).Data.Workouts[0]
	a, err := Workout(hw, 1)
	if err != nil {
		t.Fatalf("Workout: %v", err)
	}
	b, _ := Workout(hw, 1)
	c, _ := Workout(hw, 2)
	if a.ID != b.ID {
		t.Error("same export id produced different ids")
	}
	if a.ID == c.ID {
		t.Error("different users share a workout id")
	}
}

// TestUnknownMassUnitSkipped counts readings in an unknown unit as skipped.
func TestUnknownMassUnitSkipped(t *testing.T) {
	p := NewProvider(&fakeStore{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	var res ingest.Result
	ms := []models.HAEMetric{{
		Name: "weight_body_mass", Units: "st",
		Data: []json.RawMessage{json.RawMessage(`{"date":"2026-03-01 07:00:00 +0100","qty":12}`)},
	}}
	if got := p.Measurements(ms, 1, &res); len(got) != 0 {
		t.Errorf("got %d measurements, want 0", len(got))
	}
	if res.MeasurementsSkipped != 1 {
		t.Errorf("skipped = %d, want 1", res.MeasurementsSkipped)
	}
}
