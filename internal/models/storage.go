package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkoutRecord is a row of the workouts table. A workout is completed
// iff CompletedAt is non-nil.
type WorkoutRecord struct {
	ID          uuid.UUID  `json:"id"`
	UserID      int        `json:"user_id"`
	Name        string     `json:"name"`
	RoutineID   *uuid.UUID `json:"routine_id,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationSec *int       `json:"duration_seconds,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// Completed reports whether the workout was finished.
func (w WorkoutRecord) Completed() bool {
	return w.CompletedAt != nil
}

// ExerciseLogRecord is one logged set, a row of the exercise_logs table.
type ExerciseLogRecord struct {
	ID           uuid.UUID `json:"id"`
	WorkoutID    uuid.UUID `json:"workout_id"`
	UserID       int       `json:"user_id"`
	ExerciseName string    `json:"exercise_name"`
	WeightKg     *float64  `json:"weight_kg,omitempty"`
	Reps         *int      `json:"reps,omitempty"`
	SetNumber    int       `json:"set_number"`
	IsCompleted  *bool     `json:"is_completed,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// BodyMeasurementRecord is a row of the body_measurements table.
type BodyMeasurementRecord struct {
	ID         uuid.UUID `json:"id"`
	UserID     int       `json:"user_id"`
	MeasuredAt time.Time `json:"measured_at"`
	WeightKg   *float64  `json:"weight_kg,omitempty"`
	BodyFatPct *float64  `json:"body_fat_percentage,omitempty"`
	WaistCm    *float64  `json:"waist_cm,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// Profile holds per-user settings, including the unit preferences that
// are passed into every conversion.
type Profile struct {
	UserID       int       `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	FullName     string    `json:"full_name,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	HeightCm     *float64  `json:"height_cm,omitempty"`
	WeightKg     *float64  `json:"weight_kg,omitempty"`
	GoalWeightKg *float64  `json:"goal_weight_kg,omitempty"`
	WeightUnit   string    `json:"weight_unit"`
	HeightUnit   string    `json:"height_unit"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Exercise is an entry of the shared exercise library.
type Exercise struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	MuscleGroup  string    `json:"muscle_group"`
	Equipment    string    `json:"equipment"`
	Description  string    `json:"description,omitempty"`
	Instructions []string  `json:"instructions,omitempty"`
	Tips         []string  `json:"tips,omitempty"`
}

// RoutineExercise is one planned exercise inside a routine. Stored as JSONB.
type RoutineExercise struct {
	Name     string  `json:"name"`
	Sets     int     `json:"sets"`
	Reps     int     `json:"reps"`
	WeightKg float64 `json:"weight_kg"`
}

// Routine is a named workout template a session is started from.
type Routine struct {
	ID          uuid.UUID         `json:"id"`
	UserID      int               `json:"user_id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Exercises   []RoutineExercise `json:"exercises"`
	IsPublic    bool              `json:"is_public"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NutritionEntry is one logged food item.
type NutritionEntry struct {
	ID        uuid.UUID `json:"id"`
	UserID    int       `json:"user_id"`
	EntryDate time.Time `json:"entry_date"`
	MealType  string    `json:"meal_type"`
	FoodName  string    `json:"food_name"`
	Calories  int       `json:"calories"`
	ProteinG  *float64  `json:"protein_g,omitempty"`
	CarbsG    *float64  `json:"carbs_g,omitempty"`
	FatsG     *float64  `json:"fats_g,omitempty"`
}
