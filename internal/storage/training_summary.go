package storage

import (
	"context"
	"fmt"
	"time"
)

// TrainingSummaryPeriod holds aggregated training stats for one period.
type TrainingSummaryPeriod struct {
	Period             string   `json:"period"`
	Workouts           int      `json:"workouts"`
	AvgDurationMinutes *float64 `json:"avg_duration_minutes,omitempty"`
	Sets               int      `json:"sets"`
	Reps               int      `json:"reps"`
	TonnageKg          float64  `json:"tonnage_kg"`
	AvgSetsPerWorkout  float64  `json:"avg_sets_per_workout"`
}

// GetTrainingSummary returns completed-workout counts and set volume per
// period, newest first. Only completed sets of completed workouts count.
func (db *DB) GetTrainingSummary(ctx context.Context, userID int, start, end time.Time, bucket string) ([]TrainingSummaryPeriod, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, w.completed_at)::date AS period,
		        COUNT(DISTINCT w.id)::int,
		        AVG(w.duration_seconds) / 60.0,
		        COUNT(l.id)::int,
		        COALESCE(SUM(l.reps), 0)::int,
		        COALESCE(SUM(l.weight_kg * l.reps), 0)
		 FROM workouts w
		 LEFT JOIN exercise_logs l
		   ON l.workout_id = w.id AND l.is_completed AND l.weight_kg IS NOT NULL AND l.reps IS NOT NULL
		 WHERE w.user_id = $2 AND w.completed_at >= $3 AND w.completed_at < $4
		 GROUP BY period
		 ORDER BY period DESC`,
		truncInterval(bucket), userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying training summary: %w", err)
	}
	defer rows.Close()

	var result []TrainingSummaryPeriod
	for rows.Next() {
		var periodTime time.Time
		var p TrainingSummaryPeriod
		if err := rows.Scan(&periodTime, &p.Workouts, &p.AvgDurationMinutes, &p.Sets, &p.Reps, &p.TonnageKg); err != nil {
			return nil, fmt.Errorf("scanning training summary: %w", err)
		}
		p.Period = periodTime.Format("2006-01-02")
		if p.Workouts > 0 {
			p.AvgSetsPerWorkout = float64(p.Sets) / float64(p.Workouts)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// ExerciseProgression holds one workout's data for a single exercise.
type ExerciseProgression struct {
	Date      string  `json:"date"`
	MaxWeight float64 `json:"max_weight_kg"`
	TonnageKg float64 `json:"tonnage_kg"`
	Sets      int     `json:"sets"`
}

// GetExerciseProgression returns per-workout top weight and tonnage for
// exercises whose name contains exercise, oldest first.
func (db *DB) GetExerciseProgression(ctx context.Context, userID int, start, end time.Time, exercise string) ([]ExerciseProgression, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT w.completed_at::date AS day,
		        COALESCE(MAX(l.weight_kg), 0),
		        COALESCE(SUM(l.weight_kg * l.reps), 0),
		        COUNT(*)::int
		 FROM exercise_logs l
		 JOIN workouts w ON w.id = l.workout_id
		 WHERE l.user_id = $1 AND w.completed_at >= $2 AND w.completed_at < $3
		   AND l.exercise_name ILIKE '%' || $4 || '%'
		   AND l.is_completed
		 GROUP BY day
		 ORDER BY day ASC`,
		userID, start, end, exercise)
	if err != nil {
		return nil, fmt.Errorf("querying exercise progression: %w", err)
	}
	defer rows.Close()

	var result []ExerciseProgression
	for rows.Next() {
		var p ExerciseProgression
		var d time.Time
		if err := rows.Scan(&d, &p.MaxWeight, &p.TonnageKg, &p.Sets); err != nil {
			return nil, fmt.Errorf("scanning exercise progression: %w", err)
		}
		p.Date = d.Format("2006-01-02")
		result = append(result, p)
	}
	return result, rows.Err()
}

// truncInterval converts bucket strings like "1 week" to the interval name
// that date_trunc expects.
func truncInterval(bucket string) string {
	switch bucket {
	case "1 day", "day":
		return "day"
	case "1 week", "week":
		return "week"
	default:
		return "month"
	}
}
