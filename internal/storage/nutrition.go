package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// InsertNutritionEntry stores a food entry and returns it with its id set.
func (db *DB) InsertNutritionEntry(ctx context.Context, e models.NutritionEntry) (*models.NutritionEntry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO nutrition_entries (id, user_id, entry_date, meal_type, food_name, calories, protein_g, carbs_g, fats_g)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.UserID, e.EntryDate, e.MealType, e.FoodName, e.Calories, e.ProteinG, e.CarbsG, e.FatsG)
	if err != nil {
		return nil, fmt.Errorf("inserting nutrition entry: %w", err)
	}
	return &e, nil
}

// DeleteNutritionEntry removes one of the user's entries.
func (db *DB) DeleteNutritionEntry(ctx context.Context, id uuid.UUID, userID int) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM nutrition_entries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting nutrition entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("nutrition entry %s: %w", id, ErrNotFound)
	}
	return nil
}

// QueryNutritionEntries retrieves a user's entries matching f. Start and
// End compare against the entry date.
func (db *DB) QueryNutritionEntries(ctx context.Context, userID int, f RecordFilter) ([]models.NutritionEntry, error) {
	where, args := f.sql(userID, nutritionColumns)
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, entry_date, meal_type, food_name, calories, protein_g, carbs_g, fats_g
		 FROM nutrition_entries`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("querying nutrition entries: %w", err)
	}
	defer rows.Close()

	var result []models.NutritionEntry
	for rows.Next() {
		var e models.NutritionEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.EntryDate, &e.MealType, &e.FoodName,
			&e.Calories, &e.ProteinG, &e.CarbsG, &e.FatsG); err != nil {
			return nil, fmt.Errorf("scanning nutrition entry: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
