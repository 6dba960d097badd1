package alpha

import (
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// namespace seeds the deterministic ids of imported workouts.
var namespace = uuid.MustParse("3f0c5a8e-7d1b-5c4e-9a2f-6b8d0e1c2a47")

// Workout is one parsed session ready to be stored.
type Workout struct {
	Record models.WorkoutRecord
	Logs   []models.ExerciseLogRecord
}

// WorkoutID derives the id of a session so that re-importing the same
// export replaces the workout instead of duplicating it.
func WorkoutID(userID int, name string, start time.Time) uuid.UUID {
	return uuid.NewSHA1(namespace, fmt.Appendf(nil, "%d/%s/%s", userID, start.UTC().Format(time.RFC3339), name))
}

// Convert turns parsed sessions into completed workouts with one log per
// working set. Export times are wall-clock times in loc. Warmups are
// dropped and counted in the second return value.
func Convert(sessions []models.AlphaSession, userID int, loc *time.Location) ([]Workout, int) {
	var out []Workout
	warmups := 0
	for _, s := range sessions {
		d := s.Date
		start := time.Date(d.Year(), d.Month(), d.Day(), d.Hour(), d.Minute(), 0, 0, loc)
		done := start.Add(time.Duration(s.DurationSec) * time.Second)
		dur := s.DurationSec

		w := Workout{Record: models.WorkoutRecord{
			ID:          WorkoutID(userID, s.Name, start),
			UserID:      userID,
			Name:        s.Name,
			StartedAt:   start,
			CompletedAt: &done,
			DurationSec: &dur,
			Notes:       "Imported from Alpha Progression",
		}}
		for _, ex := range s.Exercises {
			for _, set := range ex.Sets {
				if set.IsWarmup {
					warmups++
					continue
				}
				weight, reps, completed := set.WeightKg, set.Reps, true
				w.Logs = append(w.Logs, models.ExerciseLogRecord{
					ID:           uuid.NewSHA1(w.Record.ID, fmt.Appendf(nil, "%d/%d", ex.Number, set.Number)),
					WorkoutID:    w.Record.ID,
					UserID:       userID,
					ExerciseName: ex.Name,
					WeightKg:     &weight,
					Reps:         &reps,
					SetNumber:    set.Number,
					IsCompleted:  &completed,
					CreatedAt:    done,
				})
			}
		}
		out = append(out, w)
	}
	return out, warmups
}
