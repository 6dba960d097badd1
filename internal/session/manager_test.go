package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

type fakeRecorder struct {
	mu      sync.Mutex
	err     error
	workout models.WorkoutRecord
	logs    []models.ExerciseLogRecord
	calls   int
}

func (f *fakeRecorder) RecordWorkout(_ context.Context, w models.WorkoutRecord, logs []models.ExerciseLogRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.workout = w
	f.logs = logs
	return nil
}

func testRoutine() models.Routine {
	return models.Routine{
		ID:   uuid.New(),
		Name: "Upper A",
		Exercises: []models.RoutineExercise{
			{Name: "Bench Press", Sets: 3, Reps: 8, WeightKg: 100},
			{Name: "Row", Sets: 2, Reps: 10, WeightKg: 60},
		},
	}
}

func newTestManager(t *testing.T, rec Recorder) *Manager {
	t.Helper()
	ft := &fakeTickers{}
	m := NewManager(rec, 0, slog.New(slog.NewTextHandler(io.Discard, nil)), WithTickerFunc(ft.New))
	t.Cleanup(m.Close)
	return m
}

// TestBlocksFromRoutine verifies ids, set counts and weight conversion.
func TestBlocksFromRoutine(t *testing.T) {
	blocks, err := BlocksFromRoutine(testRoutine(), metrics.Pounds)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(blocks))
	}
	if blocks[0].ID != 1 || blocks[1].ID != 2 {
		t.Errorf("exercise ids = %d, %d", blocks[0].ID, blocks[1].ID)
	}
	if len(blocks[0].Sets) != 3 || blocks[0].Sets[2].ID != 3 {
		t.Errorf("bench sets = %+v", blocks[0].Sets)
	}
	if got := blocks[0].Sets[0]; got.Weight != 220 || got.Reps != 8 {
		t.Errorf("bench set = %+v, want 220 lbs x 8", got)
	}

	if _, err := BlocksFromRoutine(testRoutine(), metrics.MassUnit("st")); !errors.Is(err, metrics.ErrUnknownUnit) {
		t.Errorf("err = %v, want ErrUnknownUnit", err)
	}
}

// TestManagerFinishRecordsCompletedSets verifies only completed sets are
// recorded, converted back to kg.
func TestManagerFinishRecordsCompletedSets(t *testing.T) {
	rec := &fakeRecorder{}
	m := newTestManager(t, rec)
	routine := testRoutine()

	id, err := m.Start(1, routine, metrics.Pounds)
	if err != nil {
		t.Fatal(err)
	}
	live, err := m.Get(1, id)
	if err != nil {
		t.Fatal(err)
	}
	live.ToggleSetCompletion(1, 2)
	live.ToggleSetCompletion(2, 1)
	live.AdjustSetValue(2, 1, FieldReps, -2)

	w, err := m.Finish(context.Background(), 1, id)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if w.Name != "Upper A" || w.RoutineID == nil || *w.RoutineID != routine.ID || !w.Completed() {
		t.Errorf("workout = %+v", w)
	}
	if len(rec.logs) != 2 {
		t.Fatalf("logs = %d, want 2", len(rec.logs))
	}
	bench := rec.logs[0]
	if bench.ExerciseName != "Bench Press" || bench.SetNumber != 2 || *bench.WeightKg != 99.79 || *bench.Reps != 8 {
		t.Errorf("bench log = %+v (weight %v)", bench, *bench.WeightKg)
	}
	if bench.WorkoutID != w.ID || bench.UserID != 1 || !*bench.IsCompleted {
		t.Errorf("bench log not linked: %+v", bench)
	}
	if row := rec.logs[1]; *row.Reps != 8 {
		t.Errorf("row reps = %d, want 8", *row.Reps)
	}

	select {
	case <-live.Done():
	case <-time.After(2 * time.Second):
		t.Error("runner still running after finish")
	}
	if _, err := m.Get(1, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after finish err = %v", err)
	}
}

// TestManagerFinishRequiresCompletedSet verifies an untouched session cannot be finished.
func TestManagerFinishRequiresCompletedSet(t *testing.T) {
	rec := &fakeRecorder{}
	m := newTestManager(t, rec)
	id, err := m.Start(1, testRoutine(), metrics.Kilograms)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.Finish(context.Background(), 1, id); !errors.Is(err, ErrNothingCompleted) {
		t.Fatalf("err = %v, want ErrNothingCompleted", err)
	}
	if rec.calls != 0 {
		t.Error("recorder called")
	}
	if _, err := m.Get(1, id); err != nil {
		t.Errorf("session gone after refused finish: %v", err)
	}
}

// TestManagerFinishKeepsSessionOnRecordError verifies a failed save can be retried.
func TestManagerFinishKeepsSessionOnRecordError(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("db down")}
	m := newTestManager(t, rec)
	id, _ := m.Start(1, testRoutine(), metrics.Kilograms)
	live, _ := m.Get(1, id)
	live.ToggleSetCompletion(1, 1)

	if _, err := m.Finish(context.Background(), 1, id); err == nil {
		t.Fatal("expected error")
	}
	if _, err := m.Get(1, id); err != nil {
		t.Fatalf("session lost after failed finish: %v", err)
	}

	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()
	if _, err := m.Finish(context.Background(), 1, id); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

// TestManagerScopesSessionsByUser verifies one user cannot reach another's session.
func TestManagerScopesSessionsByUser(t *testing.T) {
	m := newTestManager(t, &fakeRecorder{})
	id, _ := m.Start(1, testRoutine(), metrics.Kilograms)

	if _, err := m.Get(2, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get err = %v", err)
	}
	if _, err := m.Finish(context.Background(), 2, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Finish err = %v", err)
	}
	if err := m.Discard(2, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Discard err = %v", err)
	}
	if got := m.List(2); len(got) != 0 {
		t.Errorf("List(2) = %d sessions", len(got))
	}
	if got := m.List(1); len(got) != 1 || got[0].ID != id {
		t.Errorf("List(1) = %v", got)
	}
}

// TestManagerDiscardAndClose verifies both paths stop the runners.
func TestManagerDiscardAndClose(t *testing.T) {
	m := newTestManager(t, &fakeRecorder{})
	a, _ := m.Start(1, testRoutine(), metrics.Kilograms)
	b, _ := m.Start(1, testRoutine(), metrics.Kilograms)
	la, _ := m.Get(1, a)
	lb, _ := m.Get(1, b)

	if err := m.Discard(1, a); err != nil {
		t.Fatal(err)
	}
	<-la.Done()

	m.Close()
	<-lb.Done()
	if _, err := m.Start(1, testRoutine(), metrics.Kilograms); err == nil {
		t.Error("Start after Close succeeded")
	}
}
