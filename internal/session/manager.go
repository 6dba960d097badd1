package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned for an unknown session id or a session
	// owned by another user.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNothingCompleted is returned when finishing a session without a
	// completed set.
	ErrNothingCompleted = errors.New("no completed sets")
)

// Recorder persists a finished workout and its completed sets.
type Recorder interface {
	RecordWorkout(ctx context.Context, w models.WorkoutRecord, logs []models.ExerciseLogRecord) error
}

// Live is an active session together with what it was started from.
type Live struct {
	*Runner
	ID        uuid.UUID
	UserID    int
	Name      string
	Unit      metrics.MassUnit
	StartedAt time.Time

	routineID uuid.UUID
}

// Manager owns the live sessions of all users.
type Manager struct {
	rec         Recorder
	log         *slog.Logger
	restSeconds int
	opts        []Option
	now         func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[uuid.UUID]*Live
}

// NewManager creates a Manager that hands finished sessions to rec.
// A non-positive restSeconds uses DefaultRestSeconds. opts are applied to
// every Runner it starts.
func NewManager(rec Recorder, restSeconds int, log *slog.Logger, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		rec:         rec,
		log:         log,
		restSeconds: restSeconds,
		opts:        opts,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
		sessions:    make(map[uuid.UUID]*Live),
	}
}

// BlocksFromRoutine lays out a routine as exercise blocks. Routine weights
// are stored in kg and converted to unit, rounded to whole numbers.
func BlocksFromRoutine(routine models.Routine, unit metrics.MassUnit) ([]ExerciseBlock, error) {
	blocks := make([]ExerciseBlock, 0, len(routine.Exercises))
	for i, ex := range routine.Exercises {
		w, err := metrics.ConvertMass(ex.WeightKg, metrics.Kilograms, unit)
		if err != nil {
			return nil, fmt.Errorf("converting weight for %s: %w", ex.Name, err)
		}
		n := max(ex.Sets, 1)
		sets := make([]SetEntry, n)
		for j := range sets {
			sets[j] = SetEntry{ID: j + 1, Weight: int(math.Round(w)), Reps: max(ex.Reps, 0)}
		}
		blocks = append(blocks, ExerciseBlock{ID: i + 1, Name: ex.Name, Sets: sets})
	}
	return blocks, nil
}

// Start creates and runs a session for userID from routine.
func (m *Manager) Start(userID int, routine models.Routine, unit metrics.MassUnit) (uuid.UUID, error) {
	blocks, err := BlocksFromRoutine(routine, unit)
	if err != nil {
		return uuid.Nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx.Err() != nil {
		return uuid.Nil, errors.New("session manager closed")
	}

	live := &Live{
		Runner:    NewRunner(m.ctx, New(blocks, m.restSeconds), m.opts...),
		ID:        uuid.New(),
		UserID:    userID,
		Name:      routine.Name,
		Unit:      unit,
		StartedAt: m.now(),
		routineID: routine.ID,
	}
	m.sessions[live.ID] = live

	m.log.Info("session started", "session", live.ID, "user", userID, "routine", routine.Name)
	return live.ID, nil
}

// Get returns session id if it belongs to userID.
func (m *Manager) Get(userID int, id uuid.UUID) (*Live, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	live, ok := m.sessions[id]
	if !ok || live.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return live, nil
}

// List returns userID's live sessions, oldest first.
func (m *Manager) List(userID int) []*Live {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Live
	for _, live := range m.sessions {
		if live.UserID == userID {
			out = append(out, live)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// take removes userID's session from the registry.
func (m *Manager) take(userID int, id uuid.UUID) (*Live, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	live, ok := m.sessions[id]
	if !ok || live.UserID != userID {
		return nil, ErrSessionNotFound
	}
	delete(m.sessions, id)
	return live, nil
}

// Finish records the completed sets of a session and ends it. On a
// recording error the session stays live so the user can retry.
func (m *Manager) Finish(ctx context.Context, userID int, id uuid.UUID) (models.WorkoutRecord, error) {
	live, err := m.take(userID, id)
	if err != nil {
		return models.WorkoutRecord{}, err
	}
	restore := func() {
		m.mu.Lock()
		m.sessions[id] = live
		m.mu.Unlock()
	}

	if !live.Session().CanFinish() {
		restore()
		return models.WorkoutRecord{}, ErrNothingCompleted
	}

	workout, logs, err := m.records(live)
	if err != nil {
		restore()
		return models.WorkoutRecord{}, err
	}
	if err := m.rec.RecordWorkout(ctx, workout, logs); err != nil {
		restore()
		return models.WorkoutRecord{}, fmt.Errorf("recording workout: %w", err)
	}

	live.Close()
	m.log.Info("session finished", "session", id, "user", userID,
		"workout", workout.ID, "sets", len(logs), "duration_s", *workout.DurationSec)
	return workout, nil
}

// records converts the session state to storage records, weights in kg.
func (m *Manager) records(live *Live) (models.WorkoutRecord, []models.ExerciseLogRecord, error) {
	snap := live.Session().Snapshot()
	now := m.now()
	duration := snap.ElapsedSeconds

	w := models.WorkoutRecord{
		ID:          uuid.New(),
		UserID:      live.UserID,
		Name:        live.Name,
		StartedAt:   live.StartedAt,
		CompletedAt: &now,
		DurationSec: &duration,
	}
	if live.routineID != uuid.Nil {
		rid := live.routineID
		w.RoutineID = &rid
	}

	var logs []models.ExerciseLogRecord
	for _, ex := range snap.Exercises {
		for i, set := range ex.Sets {
			if !set.Completed {
				continue
			}
			kg, err := metrics.ConvertMass(float64(set.Weight), live.Unit, metrics.Kilograms)
			if err != nil {
				return w, nil, fmt.Errorf("converting %s set %d: %w", ex.Name, set.ID, err)
			}
			kg = math.Round(kg*100) / 100
			reps := set.Reps
			done := true
			logs = append(logs, models.ExerciseLogRecord{
				ID:           uuid.New(),
				WorkoutID:    w.ID,
				UserID:       live.UserID,
				ExerciseName: ex.Name,
				WeightKg:     &kg,
				Reps:         &reps,
				SetNumber:    i + 1,
				IsCompleted:  &done,
				CreatedAt:    now,
			})
		}
	}
	return w, logs, nil
}

// Discard ends a session without recording it.
func (m *Manager) Discard(userID int, id uuid.UUID) error {
	live, err := m.take(userID, id)
	if err != nil {
		return err
	}
	live.Close()
	m.log.Info("session discarded", "session", id, "user", userID)
	return nil
}

// Close ends every live session and waits for their tick loops to exit.
func (m *Manager) Close() {
	m.mu.Lock()
	m.cancel()
	live := make([]*Live, 0, len(m.sessions))
	for id, l := range m.sessions {
		live = append(live, l)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, l := range live {
		l.Close()
	}
}
