package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about a user's stored data.
type DataStats struct {
	TotalWorkouts     int64          `json:"total_workouts"`
	CompletedWorkouts int64          `json:"completed_workouts"`
	TotalSets         int64          `json:"total_sets"`
	TotalMeasurements int64          `json:"total_measurements"`
	TotalFoodEntries  int64          `json:"total_food_entries"`
	EarliestData      *time.Time     `json:"earliest_data"`
	LatestData        *time.Time     `json:"latest_data"`
	TopExercises      []ExerciseStat `json:"top_exercises"`
}

// ExerciseStat holds summary stats for a single exercise.
type ExerciseStat struct {
	Name        string   `json:"name"`
	Sets        int64    `json:"sets"`
	Workouts    int64    `json:"workouts"`
	MaxWeightKg *float64 `json:"max_weight_kg,omitempty"`
	VolumeKg    float64  `json:"volume_kg"`
}

// GetDataStats returns aggregate statistics for a user's stored data.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(completed_at), MIN(started_at), MAX(started_at)
		 FROM workouts WHERE user_id = $1`, userID,
	).Scan(&stats.TotalWorkouts, &stats.CompletedWorkouts, &stats.EarliestData, &stats.LatestData)
	if err != nil {
		return nil, fmt.Errorf("counting workouts: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exercise_logs WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSets)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM body_measurements WHERE user_id = $1`, userID,
	).Scan(&stats.TotalMeasurements)
	if err != nil {
		return nil, fmt.Errorf("counting measurements: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM nutrition_entries WHERE user_id = $1`, userID,
	).Scan(&stats.TotalFoodEntries)
	if err != nil {
		return nil, fmt.Errorf("counting food entries: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_name, COUNT(*), COUNT(DISTINCT workout_id), MAX(weight_kg),
		        COALESCE(SUM(weight_kg * reps), 0)
		 FROM exercise_logs
		 WHERE user_id = $1
		 GROUP BY exercise_name
		 ORDER BY COUNT(*) DESC, exercise_name
		 LIMIT 10`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s ExerciseStat
		if err := rows.Scan(&s.Name, &s.Sets, &s.Workouts, &s.MaxWeightKg, &s.VolumeKg); err != nil {
			return nil, fmt.Errorf("scanning exercise stat: %w", err)
		}
		stats.TopExercises = append(stats.TopExercises, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
