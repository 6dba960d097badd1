// Package progress fetches a user's records and turns them into
// render-ready results with the metrics package.
package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
)

// ErrUnsupported is returned when the source cannot serve a view.
var ErrUnsupported = errors.New("not supported by data source")

// Source provides the records the progress views are computed from.
// Every method is scoped to one user.
type Source interface {
	QueryWorkouts(ctx context.Context, userID int, f storage.RecordFilter) ([]models.WorkoutRecord, error)
	QueryExerciseLogs(ctx context.Context, userID int, f storage.RecordFilter) ([]models.ExerciseLogRecord, error)
	QueryBodyMeasurements(ctx context.Context, userID int, f storage.RecordFilter) ([]models.BodyMeasurementRecord, error)
	GetProfile(ctx context.Context, userID int) (*models.Profile, error)
}

// NutritionSource is implemented by sources that store food entries.
type NutritionSource interface {
	QueryNutritionEntries(ctx context.Context, userID int, f storage.RecordFilter) ([]models.NutritionEntry, error)
}

// LeaderboardSource is implemented by sources that can list every user's activity.
type LeaderboardSource interface {
	LeaderboardRows(ctx context.Context) ([]storage.UserActivity, error)
}

// Config holds the settings shared by all views.
type Config struct {
	Goals    metrics.NutritionGoals
	Location *time.Location
	Now      func() time.Time
}

// Service computes progress views from a Source.
type Service struct {
	src   Source
	goals metrics.NutritionGoals
	loc   *time.Location
	now   func() time.Time
}

// New creates a Service. A nil Location means time.Local.
func New(src Source, cfg Config) *Service {
	s := &Service{src: src, goals: cfg.Goals, loc: cfg.Location, now: cfg.Now}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Overview is the dashboard summary for one user.
type Overview struct {
	Units             metrics.Preferences      `json:"units"`
	TotalWorkouts     int                      `json:"total_workouts"`
	Streak            int                      `json:"streak"`
	TotalVolume       float64                  `json:"total_volume"`
	AvgSessionMinutes float64                  `json:"avg_session_minutes"`
	PersonalRecords   []metrics.PersonalRecord `json:"personal_records"`
	BodyWeight        []metrics.WeightPoint    `json:"body_weight"`
	WeightChange      float64                  `json:"weight_change"`
	CurrentWeight     string                   `json:"current_weight"`
}

func emptyOverview() *Overview {
	return &Overview{
		Units:           metrics.DefaultPreferences(),
		PersonalRecords: []metrics.PersonalRecord{},
		BodyWeight:      []metrics.WeightPoint{},
		CurrentWeight:   metrics.NoData,
	}
}

// Preferences reads the user's display units from the profile.
func (s *Service) Preferences(ctx context.Context, userID int) (metrics.Preferences, error) {
	p, err := s.src.GetProfile(ctx, userID)
	if err != nil {
		return metrics.Preferences{}, fmt.Errorf("loading profile: %w", err)
	}
	prefs, err := metrics.ParsePreferences(p.WeightUnit, p.HeightUnit)
	if err != nil {
		return metrics.Preferences{}, fmt.Errorf("profile units: %w", err)
	}
	return prefs, nil
}

// Overview computes the dashboard summary. A nil user gets an empty
// Overview and the source is not queried.
func (s *Service) Overview(ctx context.Context, user *storage.User) (*Overview, error) {
	out := emptyOverview()
	if user == nil {
		return out, nil
	}
	prefs, err := s.Preferences(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	out.Units = prefs

	workouts, err := s.src.QueryWorkouts(ctx, user.ID, storage.RecordFilter{CompletedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("loading workouts: %w", err)
	}
	logs, err := s.src.QueryExerciseLogs(ctx, user.ID, storage.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("loading exercise logs: %w", err)
	}
	measurements, err := s.src.QueryBodyMeasurements(ctx, user.ID, storage.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("loading measurements: %w", err)
	}

	out.TotalWorkouts = metrics.CompletedCount(workouts)
	out.AvgSessionMinutes = metrics.AverageSessionMinutes(workouts)
	if out.Streak, err = metrics.ComputeStreak(workouts, s.now().In(s.loc)); err != nil {
		return nil, err
	}
	if out.TotalVolume, err = metrics.ComputeVolume(logs, prefs.Mass); err != nil {
		return nil, err
	}
	if out.PersonalRecords, err = metrics.ComputePersonalRecords(logs, prefs.Mass); err != nil {
		return nil, err
	}
	series, err := metrics.BodyWeightSeries(measurements, prefs.Mass)
	if err != nil {
		return nil, err
	}
	out.BodyWeight = series
	out.WeightChange = metrics.WeightChange(series)
	out.CurrentWeight = metrics.FormatWeight(latestWeight(measurements), prefs.Mass)
	return out, nil
}

// latestWeight returns the most recent measured weight in kg, or nil.
func latestWeight(measurements []models.BodyMeasurementRecord) *float64 {
	var latest *models.BodyMeasurementRecord
	for i := range measurements {
		m := &measurements[i]
		if m.WeightKg == nil {
			continue
		}
		if latest == nil || m.MeasuredAt.After(latest.MeasuredAt) {
			latest = m
		}
	}
	if latest == nil {
		return nil
	}
	return latest.WeightKg
}

// Streak computes only the current streak. A nil user has no streak.
func (s *Service) Streak(ctx context.Context, user *storage.User) (int, error) {
	if user == nil {
		return 0, nil
	}
	workouts, err := s.src.QueryWorkouts(ctx, user.ID, storage.RecordFilter{CompletedOnly: true})
	if err != nil {
		return 0, fmt.Errorf("loading workouts: %w", err)
	}
	return metrics.ComputeStreak(workouts, s.now().In(s.loc))
}

// PersonalRecords returns the user's top records in their mass unit.
func (s *Service) PersonalRecords(ctx context.Context, user *storage.User) ([]metrics.PersonalRecord, error) {
	if user == nil {
		return []metrics.PersonalRecord{}, nil
	}
	prefs, err := s.Preferences(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	logs, err := s.src.QueryExerciseLogs(ctx, user.ID, storage.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("loading exercise logs: %w", err)
	}
	return metrics.ComputePersonalRecords(logs, prefs.Mass)
}

// History is the calendar view of one month.
type History struct {
	Year     int                      `json:"year"`
	Month    int                      `json:"month"`
	Days     []int                    `json:"days"`
	Workouts []metrics.WorkoutSummary `json:"workouts"`
}

// History returns the days with a completed workout in the given month and
// a summary of each workout started in it, newest first.
func (s *Service) History(ctx context.Context, user *storage.User, year int, month time.Month) (*History, error) {
	out := &History{Year: year, Month: int(month), Days: []int{}, Workouts: []metrics.WorkoutSummary{}}
	if user == nil {
		return out, nil
	}
	prefs, err := s.Preferences(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 1, 0)
	workouts, err := s.src.QueryWorkouts(ctx, user.ID, storage.RecordFilter{Start: &start, End: &end, Descending: true})
	if err != nil {
		return nil, fmt.Errorf("loading workouts: %w", err)
	}
	out.Days = metrics.WorkoutDays(workouts, year, month, s.loc)
	if out.Workouts, err = s.summarize(ctx, user.ID, workouts, prefs.Mass); err != nil {
		return nil, err
	}
	return out, nil
}

// Workouts summarizes the user's workouts selected by f in their mass unit.
func (s *Service) Workouts(ctx context.Context, user *storage.User, f storage.RecordFilter) ([]metrics.WorkoutSummary, error) {
	if user == nil {
		return []metrics.WorkoutSummary{}, nil
	}
	prefs, err := s.Preferences(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	workouts, err := s.src.QueryWorkouts(ctx, user.ID, f)
	if err != nil {
		return nil, fmt.Errorf("loading workouts: %w", err)
	}
	return s.summarize(ctx, user.ID, workouts, prefs.Mass)
}

// summarize loads the logs of all workouts in one query and joins them.
func (s *Service) summarize(ctx context.Context, userID int, workouts []models.WorkoutRecord, unit metrics.MassUnit) ([]metrics.WorkoutSummary, error) {
	if len(workouts) == 0 {
		return []metrics.WorkoutSummary{}, nil
	}
	ids := make([]uuid.UUID, len(workouts))
	for i, w := range workouts {
		ids[i] = w.ID
	}
	logs, err := s.src.QueryExerciseLogs(ctx, userID, storage.RecordFilter{WorkoutIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("loading exercise logs: %w", err)
	}
	return metrics.SummarizeWorkouts(workouts, logs, unit)
}

// BodyWeight is a weight series with its overall change.
type BodyWeight struct {
	Unit   metrics.MassUnit      `json:"unit"`
	Points []metrics.WeightPoint `json:"points"`
	Change float64               `json:"change"`
}

// BodyWeight returns the user's weigh-ins selected by f in their mass unit.
func (s *Service) BodyWeight(ctx context.Context, user *storage.User, f storage.RecordFilter) (*BodyWeight, error) {
	out := &BodyWeight{Unit: metrics.Kilograms, Points: []metrics.WeightPoint{}}
	if user == nil {
		return out, nil
	}
	prefs, err := s.Preferences(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	out.Unit = prefs.Mass
	measurements, err := s.src.QueryBodyMeasurements(ctx, user.ID, f)
	if err != nil {
		return nil, fmt.Errorf("loading measurements: %w", err)
	}
	if out.Points, err = metrics.BodyWeightSeries(measurements, prefs.Mass); err != nil {
		return nil, err
	}
	out.Change = metrics.WeightChange(out.Points)
	return out, nil
}

// Nutrition totals the user's food entries for the calendar day containing
// day against the configured goals.
func (s *Service) Nutrition(ctx context.Context, user *storage.User, day time.Time) (metrics.NutritionDay, error) {
	if user == nil {
		return metrics.NutritionTotals(nil, s.goals), nil
	}
	ns, ok := s.src.(NutritionSource)
	if !ok {
		return metrics.NutritionDay{}, fmt.Errorf("nutrition: %w", ErrUnsupported)
	}
	y, m, d := day.In(s.loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	entries, err := ns.QueryNutritionEntries(ctx, user.ID, storage.RecordFilter{Start: &start, End: &end})
	if err != nil {
		return metrics.NutritionDay{}, fmt.Errorf("loading nutrition entries: %w", err)
	}
	return metrics.NutritionTotals(entries, s.goals), nil
}

// Leaderboard ranks every user by the given key. Each user's streak is
// computed from that user's workouts only.
func (s *Service) Leaderboard(ctx context.Context, by metrics.LeaderboardKey) ([]metrics.LeaderboardEntry, error) {
	ls, ok := s.src.(LeaderboardSource)
	if !ok {
		return nil, fmt.Errorf("leaderboard: %w", ErrUnsupported)
	}
	rows, err := ls.LeaderboardRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading leaderboard: %w", err)
	}
	now := s.now().In(s.loc)
	entries := make([]metrics.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		streak, err := metrics.ComputeStreak(r.Workouts, now)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", r.User.ID, err)
		}
		name := r.User.DisplayName
		if name == "" {
			name = r.User.Login
		}
		entries = append(entries, metrics.LeaderboardEntry{
			UserID:   r.User.ID,
			Name:     name,
			Workouts: metrics.CompletedCount(r.Workouts),
			Streak:   streak,
			VolumeKg: r.VolumeKg,
		})
	}
	return metrics.RankLeaderboard(entries, by), nil
}
