package hae

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// namespace seeds the ids of imported measurements and workouts.
var namespace = uuid.MustParse("9b2e4d71-3c6a-5f08-8e1d-2a7c4b6f9e30")

// Provider processes Health Auto Export REST API payloads.
type Provider struct {
	store ingest.Store
	log   *slog.Logger
}

// NewProvider creates a new HAE ingest provider.
func NewProvider(store ingest.Store, log *slog.Logger) *Provider {
	return &Provider{store: store, log: log}
}

// Ingest stores body weight and body fat readings as measurements and
// workouts as completed workouts. Other metrics are rejected by name.
func (p *Provider) Ingest(ctx context.Context, payload *models.HAEPayload, userID int) (*ingest.Result, error) {
	result := &ingest.Result{}

	if len(payload.Data.Metrics) > 0 {
		if err := p.processMetrics(ctx, payload.Data.Metrics, userID, result); err != nil {
			return result, fmt.Errorf("processing metrics: %w", err)
		}
	}

	if len(payload.Data.Workouts) > 0 {
		if err := p.processWorkouts(ctx, payload.Data.Workouts, userID, result); err != nil {
			return result, fmt.Errorf("processing workouts: %w", err)
		}
	}

	if len(result.RejectedNames) > 0 {
		result.Message = fmt.Sprintf(
			"Some metrics were rejected because LiftLog does not store them: %v. "+
				"Only weight_body_mass and body_fat_percentage are kept.",
			result.RejectedNames)
	}
	return result, nil
}

// Measurements merges the supported metrics into one measurement per
// timestamp. Mass values are converted to kilograms.
func (p *Provider) Measurements(ms []models.HAEMetric, userID int, result *ingest.Result) []models.BodyMeasurementRecord {
	byTime := make(map[time.Time]*models.BodyMeasurementRecord)
	rejected := map[string]bool{}

	for _, m := range ms {
		kind := Kind(m.Name)
		if kind == KindUnsupported {
			if !rejected[m.Name] {
				result.RejectedNames = append(result.RejectedNames, m.Name)
				rejected[m.Name] = true
			}
			result.MetricsRejected += len(m.Data)
			continue
		}

		var unit metrics.MassUnit
		if kind == KindBodyMass {
			u, err := metrics.ParseMassUnit(m.Units)
			if err != nil {
				p.log.Warn("skipping metric", "metric", m.Name, "units", m.Units, "error", err)
				result.MeasurementsSkipped += int64(len(m.Data))
				continue
			}
			unit = u
		}

		for _, raw := range m.Data {
			result.MeasurementsReceived++
			var dp models.HAEMetricDataPoint
			if err := json.Unmarshal(raw, &dp); err != nil {
				p.log.Warn("skipping data point", "metric", m.Name, "error", err)
				result.MeasurementsSkipped++
				continue
			}
			at := dp.Date.Time.UTC()
			rec, ok := byTime[at]
			if !ok {
				rec = &models.BodyMeasurementRecord{
					ID:         uuid.NewSHA1(namespace, fmt.Appendf(nil, "measurement/%d/%s", userID, at.Format(time.RFC3339))),
					UserID:     userID,
					MeasuredAt: at,
					Notes:      "Health Auto Export",
				}
				byTime[at] = rec
			}
			qty := dp.Qty
			switch kind {
			case KindBodyMass:
				kg, err := metrics.ConvertMass(qty, unit, metrics.Kilograms)
				if err != nil {
					result.MeasurementsSkipped++
					continue
				}
				rec.WeightKg = &kg
			case KindBodyFat:
				rec.BodyFatPct = &qty
			}
		}
	}

	out := make([]models.BodyMeasurementRecord, 0, len(byTime))
	for _, rec := range byTime {
		if rec.WeightKg == nil && rec.BodyFatPct == nil {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MeasuredAt.Before(out[j].MeasuredAt) })
	return out
}

func (p *Provider) processMetrics(ctx context.Context, ms []models.HAEMetric, userID int, result *ingest.Result) error {
	rows := p.Measurements(ms, userID, result)
	if len(rows) == 0 {
		return nil
	}
	inserted, err := p.store.InsertBodyMeasurements(ctx, rows)
	if err != nil {
		return fmt.Errorf("inserting body measurements: %w", err)
	}
	result.MeasurementsInserted = inserted
	result.MeasurementsSkipped += int64(len(rows)) - inserted
	return nil
}

// Workout converts an HAE workout into a completed workout. The id is
// derived from the export id and the user so that repeated exports
// update the same row.
func Workout(w models.HAEWorkout, userID int) (models.WorkoutRecord, error) {
	if w.ID == "" {
		return models.WorkoutRecord{}, fmt.Errorf("workout %q has no id", w.Name)
	}
	if w.Start.IsZero() || w.End.IsZero() {
		return models.WorkoutRecord{}, fmt.Errorf("workout %s has no start or end", w.ID)
	}
	end := w.End.Time
	dur := int(w.Duration)
	if dur <= 0 {
		dur = int(end.Sub(w.Start.Time).Seconds())
	}
	return models.WorkoutRecord{
		ID:          uuid.NewSHA1(namespace, fmt.Appendf(nil, "workout/%d/%s", userID, w.ID)),
		UserID:      userID,
		Name:        w.Name,
		StartedAt:   w.Start.Time,
		CompletedAt: &end,
		DurationSec: &dur,
		Notes:       "Health Auto Export",
	}, nil
}

func (p *Provider) processWorkouts(ctx context.Context, workouts []models.HAEWorkout, userID int, result *ingest.Result) error {
	for _, w := range workouts {
		result.WorkoutsReceived++

		rec, err := Workout(w, userID)
		if err != nil {
			p.log.Warn("skipping workout", "error", err)
			continue
		}
		if _, err := p.store.UpsertWorkout(ctx, rec, nil); err != nil {
			return fmt.Errorf("storing workout %s: %w", w.ID, err)
		}
		result.WorkoutsStored++
	}
	return nil
}
