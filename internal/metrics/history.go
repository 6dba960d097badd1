package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// WorkoutSummary is one row of the workout history list.
type WorkoutSummary struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	Exercises       int        `json:"exercises"`
	Sets            int        `json:"sets"`
	Volume          float64    `json:"volume"`
	Unit            MassUnit   `json:"unit"`
}

// SummarizeWorkouts joins logs to their workouts and returns one summary
// per workout in input order. Logs of unknown workouts are ignored.
func SummarizeWorkouts(workouts []models.WorkoutRecord, logs []models.ExerciseLogRecord, unit MassUnit) ([]WorkoutSummary, error) {
	if err := checkMass(unit); err != nil {
		return nil, err
	}

	summaries := make([]WorkoutSummary, 0, len(workouts))
	byID := make(map[uuid.UUID]int, len(workouts))
	for i, w := range workouts {
		if w.ID == uuid.Nil {
			return nil, fmt.Errorf("%w: workout at index %d has no id", ErrMalformedInput, i)
		}
		s := WorkoutSummary{
			ID:          w.ID,
			Name:        w.Name,
			StartedAt:   w.StartedAt,
			CompletedAt: w.CompletedAt,
			Unit:        unit,
		}
		if w.DurationSec != nil {
			s.DurationMinutes = *w.DurationSec / 60
		}
		byID[w.ID] = len(summaries)
		summaries = append(summaries, s)
	}

	exercises := make(map[uuid.UUID]map[string]bool)
	for i, l := range logs {
		if l.ID == uuid.Nil {
			return nil, fmt.Errorf("%w: exercise log at index %d has no id", ErrMalformedInput, i)
		}
		idx, ok := byID[l.WorkoutID]
		if !ok {
			continue
		}
		if exercises[l.WorkoutID] == nil {
			exercises[l.WorkoutID] = make(map[string]bool)
		}
		exercises[l.WorkoutID][l.ExerciseName] = true
		summaries[idx].Sets++
		summaries[idx].Volume += setVolume(l, unit)
	}
	for id, names := range exercises {
		summaries[byID[id]].Exercises = len(names)
	}
	return summaries, nil
}

// WorkoutDays returns the sorted days of the given month on which a workout
// was completed, in loc.
func WorkoutDays(workouts []models.WorkoutRecord, year int, month time.Month, loc *time.Location) []int {
	seen := make(map[int]bool)
	days := []int{}
	for _, w := range workouts {
		if w.CompletedAt == nil {
			continue
		}
		y, m, d := w.CompletedAt.In(loc).Date()
		if y != year || m != month || seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// AverageSessionMinutes averages the duration of completed workouts that
// recorded one.
func AverageSessionMinutes(workouts []models.WorkoutRecord) float64 {
	var total, n int
	for _, w := range workouts {
		if w.CompletedAt == nil || w.DurationSec == nil {
			continue
		}
		total += *w.DurationSec
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n) / 60
}

// CompletedCount counts workouts with a completion time.
func CompletedCount(workouts []models.WorkoutRecord) int {
	n := 0
	for _, w := range workouts {
		if w.Completed() {
			n++
		}
	}
	return n
}
