package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/models"
)

const exerciseLogCols = `id, workout_id, user_id, exercise_name, weight_kg, reps, set_number, is_completed, created_at`

func insertExerciseLogs(ctx context.Context, q querier, logs []models.ExerciseLogRecord) (int64, error) {
	if len(logs) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(logs)*9)
	for _, l := range logs {
		args = append(args, l.ID, l.WorkoutID, l.UserID, l.ExerciseName,
			l.WeightKg, l.Reps, l.SetNumber, l.IsCompleted, l.CreatedAt)
	}
	query := `INSERT INTO exercise_logs (` + exerciseLogCols + `) VALUES ` +
		valuesList(len(logs), 9) + ` ON CONFLICT DO NOTHING`

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting exercise logs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QueryExerciseLogs retrieves a user's logged sets matching f.
func (db *DB) QueryExerciseLogs(ctx context.Context, userID int, f RecordFilter) ([]models.ExerciseLogRecord, error) {
	where, args := f.sql(userID, exerciseLogColumns)
	rows, err := db.Pool.Query(ctx, `SELECT `+exerciseLogCols+` FROM exercise_logs`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("querying exercise logs: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseLogRecord
	for rows.Next() {
		var l models.ExerciseLogRecord
		if err := rows.Scan(&l.ID, &l.WorkoutID, &l.UserID, &l.ExerciseName,
			&l.WeightKg, &l.Reps, &l.SetNumber, &l.IsCompleted, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exercise log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
