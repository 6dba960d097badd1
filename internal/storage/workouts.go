package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const workoutCols = `id, user_id, name, routine_id, started_at, completed_at, duration_seconds, notes`

func insertWorkout(ctx context.Context, q querier, w models.WorkoutRecord) (bool, error) {
	tag, err := q.Exec(ctx,
		`INSERT INTO workouts (`+workoutCols+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT DO NOTHING`,
		w.ID, w.UserID, w.Name, w.RoutineID, w.StartedAt, w.CompletedAt, w.DurationSec, w.Notes)
	if err != nil {
		return false, fmt.Errorf("inserting workout: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertWorkout inserts a workout or, if its id exists for the same user,
// replaces its fields and deletes its exercise logs so they can be
// re-inserted. Used by imports with deterministic ids.
func (db *DB) UpsertWorkout(ctx context.Context, w models.WorkoutRecord, logs []models.ExerciseLogRecord) (int64, error) {
	var inserted int64
	err := db.inTx(ctx, func(q querier) error {
		_, err := q.Exec(ctx,
			`INSERT INTO workouts (`+workoutCols+`)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			 ON CONFLICT (id) DO UPDATE SET
			   name = EXCLUDED.name, started_at = EXCLUDED.started_at,
			   completed_at = EXCLUDED.completed_at, duration_seconds = EXCLUDED.duration_seconds
			 WHERE workouts.user_id = EXCLUDED.user_id`,
			w.ID, w.UserID, w.Name, w.RoutineID, w.StartedAt, w.CompletedAt, w.DurationSec, w.Notes)
		if err != nil {
			return fmt.Errorf("upserting workout: %w", err)
		}
		if _, err := q.Exec(ctx,
			`DELETE FROM exercise_logs WHERE workout_id = $1 AND user_id = $2`, w.ID, w.UserID); err != nil {
			return fmt.Errorf("clearing exercise logs: %w", err)
		}
		inserted, err = insertExerciseLogs(ctx, q, logs)
		return err
	})
	return inserted, err
}

// RecordWorkout stores a finished session and its sets atomically.
func (db *DB) RecordWorkout(ctx context.Context, w models.WorkoutRecord, logs []models.ExerciseLogRecord) error {
	return db.inTx(ctx, func(q querier) error {
		ok, err := insertWorkout(ctx, q, w)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("workout %s already recorded", w.ID)
		}
		_, err = insertExerciseLogs(ctx, q, logs)
		return err
	})
}

// QueryWorkouts retrieves a user's workouts matching f.
func (db *DB) QueryWorkouts(ctx context.Context, userID int, f RecordFilter) ([]models.WorkoutRecord, error) {
	where, args := f.sql(userID, workoutColumns)
	rows, err := db.Pool.Query(ctx, `SELECT `+workoutCols+` FROM workouts`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()
	return scanWorkoutRows(rows)
}

// WorkoutDetail is a workout with its logged sets.
type WorkoutDetail struct {
	models.WorkoutRecord
	Sets []models.ExerciseLogRecord `json:"sets"`
}

// GetWorkout retrieves a single workout by ID with its sets.
func (db *DB) GetWorkout(ctx context.Context, workoutID uuid.UUID, userID int) (*WorkoutDetail, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+workoutCols+` FROM workouts WHERE id = $1 AND user_id = $2`,
		workoutID, userID)

	var w models.WorkoutRecord
	if err := scanWorkout(row, &w); err != nil {
		return nil, notFound(err, "workout")
	}

	sets, err := db.QueryExerciseLogs(ctx, userID, RecordFilter{WorkoutID: &workoutID})
	if err != nil {
		return nil, err
	}
	if sets == nil {
		sets = []models.ExerciseLogRecord{}
	}
	return &WorkoutDetail{WorkoutRecord: w, Sets: sets}, nil
}

// DeleteWorkout removes a workout; its logs cascade.
func (db *DB) DeleteWorkout(ctx context.Context, workoutID uuid.UUID, userID int) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2`, workoutID, userID)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workout %s: %w", workoutID, ErrNotFound)
	}
	return nil
}

func scanWorkout(row pgx.Row, w *models.WorkoutRecord) error {
	return row.Scan(&w.ID, &w.UserID, &w.Name, &w.RoutineID, &w.StartedAt,
		&w.CompletedAt, &w.DurationSec, &w.Notes)
}

func scanWorkoutRows(rows pgx.Rows) ([]models.WorkoutRecord, error) {
	var result []models.WorkoutRecord
	for rows.Next() {
		var w models.WorkoutRecord
		if err := scanWorkout(rows, &w); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// valuesList renders "($1,$2),($3,$4)..." for n rows of width columns.
func valuesList(n, width int) string {
	rows := make([]string, n)
	ph := make([]string, width)
	for i := range rows {
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", i*width+j+1)
		}
		rows[i] = "(" + strings.Join(ph, ",") + ")"
	}
	return strings.Join(rows, ",")
}
