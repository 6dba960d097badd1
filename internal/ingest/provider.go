package ingest

import (
	"context"

	"github.com/claude/liftlog/internal/models"
)

// Store is the persistence the ingest providers write to. It is
// satisfied by *storage.DB.
type Store interface {
	UpsertWorkout(ctx context.Context, w models.WorkoutRecord, logs []models.ExerciseLogRecord) (int64, error)
	InsertBodyMeasurements(ctx context.Context, ms []models.BodyMeasurementRecord) (int64, error)
}

// Result holds the outcome of an ingest operation.
type Result struct {
	WorkoutsReceived int   `json:"workouts_received"`
	WorkoutsStored   int   `json:"workouts_stored"`
	SetsReceived     int   `json:"sets_received"`
	SetsInserted     int64 `json:"sets_inserted"`
	WarmupsSkipped   int   `json:"warmups_skipped,omitempty"`

	MeasurementsReceived int   `json:"measurements_received,omitempty"`
	MeasurementsInserted int64 `json:"measurements_inserted,omitempty"`
	MeasurementsSkipped  int64 `json:"measurements_skipped,omitempty"`

	MetricsRejected int      `json:"metrics_rejected,omitempty"`
	RejectedNames   []string `json:"rejected_names,omitempty"`

	Message string `json:"message,omitempty"`
}

// Add accumulates another result into r.
func (r *Result) Add(o *Result) {
	r.WorkoutsReceived += o.WorkoutsReceived
	r.WorkoutsStored += o.WorkoutsStored
	r.SetsReceived += o.SetsReceived
	r.SetsInserted += o.SetsInserted
	r.WarmupsSkipped += o.WarmupsSkipped
	r.MeasurementsReceived += o.MeasurementsReceived
	r.MeasurementsInserted += o.MeasurementsInserted
	r.MeasurementsSkipped += o.MeasurementsSkipped
	r.MetricsRejected += o.MetricsRejected
	r.RejectedNames = append(r.RejectedNames, o.RejectedNames...)
}
