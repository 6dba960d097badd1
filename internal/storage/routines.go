package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const routineCols = `id, user_id, name, description, exercises, is_public, created_at`

// ListRoutines returns the user's routines plus public ones, newest first.
func (db *DB) ListRoutines(ctx context.Context, userID int) ([]models.Routine, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+routineCols+` FROM routines
		 WHERE user_id = $1 OR is_public
		 ORDER BY created_at DESC, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying routines: %w", err)
	}
	defer rows.Close()

	var result []models.Routine
	for rows.Next() {
		var r models.Routine
		if err := scanRoutine(rows, &r); err != nil {
			return nil, fmt.Errorf("scanning routine: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetRoutine returns a routine the user owns or that is public.
func (db *DB) GetRoutine(ctx context.Context, id uuid.UUID, userID int) (*models.Routine, error) {
	var r models.Routine
	row := db.Pool.QueryRow(ctx,
		`SELECT `+routineCols+` FROM routines WHERE id = $1 AND (user_id = $2 OR is_public)`,
		id, userID)
	if err := scanRoutine(row, &r); err != nil {
		return nil, notFound(err, "routine")
	}
	return &r, nil
}

// InsertRoutine stores a new routine and returns it with id and creation time set.
func (db *DB) InsertRoutine(ctx context.Context, r models.Routine) (*models.Routine, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	exercises, err := json.Marshal(r.Exercises)
	if err != nil {
		return nil, fmt.Errorf("encoding routine exercises: %w", err)
	}
	err = db.Pool.QueryRow(ctx,
		`INSERT INTO routines (id, user_id, name, description, exercises, is_public)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING created_at`,
		r.ID, r.UserID, r.Name, r.Description, exercises, r.IsPublic,
	).Scan(&r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting routine: %w", err)
	}
	return &r, nil
}

func scanRoutine(row pgx.Row, r *models.Routine) error {
	var exercises []byte
	if err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.Description, &exercises, &r.IsPublic, &r.CreatedAt); err != nil {
		return err
	}
	if err := json.Unmarshal(exercises, &r.Exercises); err != nil {
		return fmt.Errorf("decoding routine exercises: %w", err)
	}
	return nil
}
