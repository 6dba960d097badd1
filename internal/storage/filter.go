package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordFilter narrows a record query. The zero value selects every row of
// the user in ascending time order.
type RecordFilter struct {
	Start         *time.Time  // inclusive
	End           *time.Time  // exclusive
	CompletedOnly bool        // workouts only
	WorkoutID     *uuid.UUID  // exercise logs only
	WorkoutIDs    []uuid.UUID // exercise logs only, any of
	Exercise      string      // exercise logs only, exact match
	Descending    bool
	Limit         int
}

// filterColumns names the columns a filter applies to for one table.
// Empty names mean the corresponding filter field does not apply.
type filterColumns struct {
	time      string
	completed string
	workoutID string
	exercise  string
	then      string // secondary ORDER BY
}

var (
	workoutColumns     = filterColumns{time: "started_at", completed: "completed_at", then: "id"}
	exerciseLogColumns = filterColumns{time: "created_at", workoutID: "workout_id", exercise: "exercise_name", then: "exercise_name, set_number"}
	measurementColumns = filterColumns{time: "measured_at", then: "id"}
	nutritionColumns   = filterColumns{time: "entry_date", then: "created_at"}
)

// sql renders the WHERE, ORDER BY and LIMIT clauses. user_id is always $1.
func (f RecordFilter) sql(userID int, cols filterColumns) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{userID}
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Start != nil {
		add(cols.time+" >= $%d", *f.Start)
	}
	if f.End != nil {
		add(cols.time+" < $%d", *f.End)
	}
	if f.CompletedOnly && cols.completed != "" {
		conds = append(conds, cols.completed+" IS NOT NULL")
	}
	if f.WorkoutID != nil && cols.workoutID != "" {
		add(cols.workoutID+" = $%d", *f.WorkoutID)
	}
	if len(f.WorkoutIDs) > 0 && cols.workoutID != "" {
		add(cols.workoutID+" = ANY($%d)", f.WorkoutIDs)
	}
	if f.Exercise != "" && cols.exercise != "" {
		add(cols.exercise+" = $%d", f.Exercise)
	}

	dir := "ASC"
	if f.Descending {
		dir = "DESC"
	}
	var b strings.Builder
	b.WriteString(" WHERE ")
	b.WriteString(strings.Join(conds, " AND "))
	fmt.Fprintf(&b, " ORDER BY %s %s", cols.time, dir)
	if cols.then != "" {
		b.WriteString(", " + cols.then)
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}
