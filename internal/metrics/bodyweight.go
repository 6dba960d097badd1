package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// WeightPoint is one body-weight measurement in the display unit.
type WeightPoint struct {
	Date   time.Time `json:"date"`
	Weight float64   `json:"weight"`
}

// BodyWeightSeries returns the measured body weights in unit, ascending by
// date. Measurements without a weight are skipped.
func BodyWeightSeries(measurements []models.BodyMeasurementRecord, unit MassUnit) ([]WeightPoint, error) {
	if err := checkMass(unit); err != nil {
		return nil, err
	}
	series := []WeightPoint{}
	for i, m := range measurements {
		if m.ID == uuid.Nil {
			return nil, fmt.Errorf("%w: measurement at index %d has no id", ErrMalformedInput, i)
		}
		if m.WeightKg == nil {
			continue
		}
		w, err := fromKg(*m.WeightKg, unit)
		if err != nil {
			return nil, err
		}
		series = append(series, WeightPoint{Date: m.MeasuredAt, Weight: w})
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series, nil
}

// WeightChange is the last weight minus the first. Fewer than two points
// is no change.
func WeightChange(series []WeightPoint) float64 {
	if len(series) < 2 {
		return 0
	}
	return series[len(series)-1].Weight - series[0].Weight
}
