package metrics

import (
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// ComputeVolume sums weight x reps over all logs in unit. Completion status
// is not filtered. A missing weight or reps contributes 0.
func ComputeVolume(logs []models.ExerciseLogRecord, unit MassUnit) (float64, error) {
	if err := checkMass(unit); err != nil {
		return 0, err
	}
	var total float64
	for i, l := range logs {
		if l.ID == uuid.Nil {
			return 0, fmt.Errorf("%w: exercise log at index %d has no id", ErrMalformedInput, i)
		}
		total += setVolume(l, unit)
	}
	return total, nil
}

// setVolume is weight x reps of one log; unit must already be checked.
func setVolume(l models.ExerciseLogRecord, unit MassUnit) float64 {
	if l.WeightKg == nil || l.Reps == nil {
		return 0
	}
	w, _ := fromKg(*l.WeightKg, unit)
	return w * float64(*l.Reps)
}
