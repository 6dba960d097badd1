package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/models"
)

// InsertBodyMeasurements batch-inserts measurements. A measurement at an
// already stored time for the same user is skipped. Returns count inserted.
func (db *DB) InsertBodyMeasurements(ctx context.Context, ms []models.BodyMeasurementRecord) (int64, error) {
	if len(ms) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(ms)*7)
	for _, m := range ms {
		args = append(args, m.ID, m.UserID, m.MeasuredAt, m.WeightKg, m.BodyFatPct, m.WaistCm, m.Notes)
	}
	query := `INSERT INTO body_measurements (id, user_id, measured_at, weight_kg, body_fat_percentage, waist_cm, notes) VALUES ` +
		valuesList(len(ms), 7) + ` ON CONFLICT DO NOTHING`

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting body measurements: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QueryBodyMeasurements retrieves a user's measurements matching f.
func (db *DB) QueryBodyMeasurements(ctx context.Context, userID int, f RecordFilter) ([]models.BodyMeasurementRecord, error) {
	where, args := f.sql(userID, measurementColumns)
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, measured_at, weight_kg, body_fat_percentage, waist_cm, notes
		 FROM body_measurements`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("querying body measurements: %w", err)
	}
	defer rows.Close()

	var result []models.BodyMeasurementRecord
	for rows.Next() {
		var m models.BodyMeasurementRecord
		if err := rows.Scan(&m.ID, &m.UserID, &m.MeasuredAt, &m.WeightKg, &m.BodyFatPct, &m.WaistCm, &m.Notes); err != nil {
			return nil, fmt.Errorf("scanning body measurement: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
