package mcp

import (
	"context"
	"time"

	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -7)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// rangeFilter reads the optional start/end arguments into a filter.
func rangeFilter(req mcp.CallToolRequest) (storage.RecordFilter, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return storage.RecordFilter{}, err
	}
	return storage.RecordFilter{Start: &start, End: &end}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Tool definitions ---

var toolGetWorkouts = mcp.NewTool("get_workouts",
	mcp.WithDescription("List workouts in a time range with duration, exercise count, completed sets and volume in the user's weight unit."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithBoolean("completed_only", mcp.Description("Only return finished workouts. Defaults to true.")),
)

var toolGetExerciseLogs = mcp.NewTool("get_exercise_logs",
	mcp.WithDescription("Retrieve individual logged sets (exercise, set number, weight in kg, reps, completion)."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Exact exercise name, e.g. 'Bench Press'")),
	mcp.WithString("workout_id", mcp.Description("Only sets of this workout (UUID). Ignores the time range.")),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("Top personal records: the heaviest completed set per exercise, best five, in the user's weight unit."),
)

var toolGetStreak = mcp.NewTool("get_streak",
	mcp.WithDescription("Current workout streak: consecutive days with a completed workout ending today or yesterday."),
)

var toolGetTrainingVolume = mcp.NewTool("get_training_volume",
	mcp.WithDescription("Training volume over a time range: total weight x reps of completed sets in the user's weight unit, plus per-period workouts, sets, reps and tonnage in kg."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Period size. Defaults to 'week'."), mcp.Enum("day", "week", "month")),
)

var toolGetBodyWeight = mcp.NewTool("get_body_weight",
	mcp.WithDescription("Body weight series in the user's weight unit and the change between the first and last weigh-in."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetProgressOverview = mcp.NewTool("get_progress_overview",
	mcp.WithDescription("Dashboard summary: total workouts, streak, total volume, average session length, top records and body weight trend."),
)

// --- Tool handlers ---

func (h *handlers) getWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := rangeFilter(req)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	f.CompletedOnly = req.GetBool("completed_only", true)
	f.Descending = true

	summaries, err := h.svc.Workouts(ctx, user(ctx), f)
	if err != nil {
		h.log.Error("mcp get_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(summaries)
}

func (h *handlers) getExerciseLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var f storage.RecordFilter
	if wid := req.GetString("workout_id", ""); wid != "" {
		id, err := uuid.Parse(wid)
		if err != nil {
			return mcp.NewToolResultError("invalid workout_id: " + err.Error()), nil
		}
		f.WorkoutID = &id
	} else {
		var err error
		if f, err = rangeFilter(req); err != nil {
			return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
		}
	}
	f.Exercise = req.GetString("exercise", "")

	logs, err := h.ds.QueryExerciseLogs(ctx, UserIDFromContext(ctx), f)
	if err != nil {
		h.log.Error("mcp get_exercise_logs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(logs)
}

func (h *handlers) getPersonalRecords(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := h.svc.PersonalRecords(ctx, user(ctx))
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(records)
}

func (h *handlers) getStreak(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	streak, err := h.svc.Streak(ctx, user(ctx))
	if err != nil {
		h.log.Error("mcp get_streak", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(map[string]int{"streak": streak})
}

func (h *handlers) getTrainingVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := rangeFilter(req)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	bucket := req.GetString("bucket", "week")
	uid := UserIDFromContext(ctx)

	prefs, err := h.svc.Preferences(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_training_volume profile", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	logs, err := h.ds.QueryExerciseLogs(ctx, uid, f)
	if err != nil {
		h.log.Error("mcp get_training_volume logs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	total, err := metrics.ComputeVolume(logs, prefs.Mass)
	if err != nil {
		return mcp.NewToolResultError("volume failed: " + err.Error()), nil
	}
	periods, err := h.ds.GetTrainingSummary(ctx, uid, *f.Start, *f.End, bucket)
	if err != nil {
		h.log.Error("mcp get_training_volume summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(map[string]any{
		"unit":         prefs.Mass,
		"total_volume": total,
		"periods":      periods,
	})
}

func (h *handlers) getBodyWeight(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := rangeFilter(req)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	bw, err := h.svc.BodyWeight(ctx, user(ctx), f)
	if err != nil {
		h.log.Error("mcp get_body_weight", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(bw)
}

func (h *handlers) getProgressOverview(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	overview, err := h.svc.Overview(ctx, user(ctx))
	if err != nil {
		h.log.Error("mcp get_progress_overview", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(overview)
}
