package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const exerciseCols = `id, name, category, muscle_group, equipment, description, instructions, tips`

// ListExercises returns the shared exercise library. group matches the
// category or muscle group exactly; search matches names case-insensitively.
// Both are optional.
func (db *DB) ListExercises(ctx context.Context, group, search string) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseCols+` FROM exercises
		 WHERE ($1 = '' OR category = $1 OR muscle_group = $1)
		   AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		 ORDER BY category, name`,
		group, search)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var e models.Exercise
		if err := scanExercise(rows, &e); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetExercise returns one exercise of the library.
func (db *DB) GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error) {
	var e models.Exercise
	row := db.Pool.QueryRow(ctx, `SELECT `+exerciseCols+` FROM exercises WHERE id = $1`, id)
	if err := scanExercise(row, &e); err != nil {
		return nil, notFound(err, "exercise")
	}
	return &e, nil
}

func scanExercise(row pgx.Row, e *models.Exercise) error {
	return row.Scan(&e.ID, &e.Name, &e.Category, &e.MuscleGroup, &e.Equipment,
		&e.Description, &e.Instructions, &e.Tips)
}
