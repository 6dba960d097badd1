package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/models"
)

// UserActivity is the raw material for one leaderboard entry: a user's
// completed workouts and lifetime volume in kg.
type UserActivity struct {
	User     User
	Workouts []models.WorkoutRecord
	VolumeKg float64
}

// LeaderboardRows loads every user's completed workouts and total volume.
// Rows are grouped per user; nothing is aggregated across users here.
func (db *DB) LeaderboardRows(ctx context.Context) ([]UserActivity, error) {
	users, err := db.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	byUser := make(map[int]*UserActivity, len(users))
	result := make([]UserActivity, len(users))
	for i, u := range users {
		result[i].User = u
		byUser[u.ID] = &result[i]
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutCols+` FROM workouts WHERE completed_at IS NOT NULL ORDER BY user_id, completed_at`)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard workouts: %w", err)
	}
	workouts, err := scanWorkoutRows(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	for _, w := range workouts {
		if a, ok := byUser[w.UserID]; ok {
			a.Workouts = append(a.Workouts, w)
		}
	}

	vrows, err := db.Pool.Query(ctx,
		`SELECT user_id, COALESCE(SUM(weight_kg * reps), 0)
		 FROM exercise_logs
		 WHERE weight_kg IS NOT NULL AND reps IS NOT NULL
		 GROUP BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard volume: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		var uid int
		var vol float64
		if err := vrows.Scan(&uid, &vol); err != nil {
			return nil, fmt.Errorf("scanning leaderboard volume: %w", err)
		}
		if a, ok := byUser[uid]; ok {
			a.VolumeKg = vol
		}
	}
	return result, vrows.Err()
}
