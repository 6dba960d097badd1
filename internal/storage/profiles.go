package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/jackc/pgx/v5"
)

// GetProfile returns the user's profile. A user without a profile row gets
// the default units.
func (db *DB) GetProfile(ctx context.Context, userID int) (*models.Profile, error) {
	p := &models.Profile{UserID: userID, WeightUnit: db.weightUnit, HeightUnit: db.heightUnit}
	err := db.Pool.QueryRow(ctx,
		`SELECT username, full_name, bio, height_cm, weight_kg, goal_weight_kg,
		        weight_unit, height_unit, updated_at
		 FROM profiles WHERE user_id = $1`, userID,
	).Scan(&p.Username, &p.FullName, &p.Bio, &p.HeightCm, &p.WeightKg, &p.GoalWeightKg,
		&p.WeightUnit, &p.HeightUnit, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, nil
		}
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return p, nil
}

// UpdateProfile writes the editable profile fields. Units of an existing
// row are left alone; a new row starts with the default units.
func (db *DB) UpdateProfile(ctx context.Context, p models.Profile) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO profiles (user_id, username, full_name, bio, height_cm, weight_kg, goal_weight_kg,
		                       weight_unit, height_unit)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (user_id) DO UPDATE SET
		   username = EXCLUDED.username, full_name = EXCLUDED.full_name, bio = EXCLUDED.bio,
		   height_cm = EXCLUDED.height_cm, weight_kg = EXCLUDED.weight_kg,
		   goal_weight_kg = EXCLUDED.goal_weight_kg, updated_at = NOW()`,
		db.profileArgs(p)...)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

// profileArgs returns the UpdateProfile parameters. A new row gets the
// default units.
func (db *DB) profileArgs(p models.Profile) []any {
	return []any{p.UserID, p.Username, p.FullName, p.Bio, p.HeightCm, p.WeightKg, p.GoalWeightKg,
		db.weightUnit, db.heightUnit}
}

// UpdateUnits stores the user's display units. Callers validate the values.
func (db *DB) UpdateUnits(ctx context.Context, userID int, weightUnit, heightUnit string) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO profiles (user_id, weight_unit, height_unit) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET
		   weight_unit = EXCLUDED.weight_unit, height_unit = EXCLUDED.height_unit, updated_at = NOW()`,
		userID, weightUnit, heightUnit)
	if err != nil {
		return fmt.Errorf("updating units: %w", err)
	}
	return nil
}
