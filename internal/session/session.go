// Package session runs live workouts: an elapsed timer that can be paused,
// a rest countdown started by completing a set, and the set tree the user
// edits while training.
package session

import "sync"

const (
	// DefaultRestSeconds is the countdown started when a set is completed.
	DefaultRestSeconds = 90
	// DefaultExtendSeconds is the amount one "extend rest" action adds.
	DefaultExtendSeconds = 30
)

// SetEntry is one set of an exercise. Weight is in the user's display unit.
type SetEntry struct {
	ID        int  `json:"id"`
	Weight    int  `json:"weight"`
	Reps      int  `json:"reps"`
	Completed bool `json:"completed"`
}

// ExerciseBlock is an exercise and its ordered sets.
type ExerciseBlock struct {
	ID   int        `json:"id"`
	Name string     `json:"name"`
	Sets []SetEntry `json:"sets"`
}

// RestState is the rest countdown. Remaining is only meaningful while Active.
type RestState struct {
	Active    bool `json:"active"`
	Remaining int  `json:"remaining_seconds"`
}

// Field selects the set value AdjustSetValue changes.
type Field string

const (
	FieldWeight Field = "weight"
	FieldReps   Field = "reps"
)

// Snapshot is a copy of the whole session state for rendering.
type Snapshot struct {
	Exercises      []ExerciseBlock `json:"exercises"`
	ElapsedSeconds int             `json:"elapsed_seconds"`
	Paused         bool            `json:"paused"`
	Rest           RestState       `json:"rest"`
	CompletedSets  int             `json:"completed_sets"`
	TotalSets      int             `json:"total_sets"`
	CanFinish      bool            `json:"can_finish"`
}

// Session is the state of one workout in progress. All methods are safe
// for concurrent use; operations apply in the order they acquire the lock.
type Session struct {
	mu          sync.Mutex
	exercises   []ExerciseBlock
	elapsed     int
	paused      bool
	rest        RestState
	restSeconds int
	restStarts  uint64 // bumped whenever the countdown restarts from full
}

// New returns a running session over a copy of exercises. A non-positive
// restSeconds uses DefaultRestSeconds.
func New(exercises []ExerciseBlock, restSeconds int) *Session {
	if restSeconds <= 0 {
		restSeconds = DefaultRestSeconds
	}
	return &Session{
		exercises:   copyBlocks(exercises),
		restSeconds: restSeconds,
	}
}

// find returns the addressed set or nil. Caller holds mu.
func (s *Session) find(exerciseID, setID int) *SetEntry {
	for i := range s.exercises {
		if s.exercises[i].ID != exerciseID {
			continue
		}
		for j := range s.exercises[i].Sets {
			if s.exercises[i].Sets[j].ID == setID {
				return &s.exercises[i].Sets[j]
			}
		}
		return nil
	}
	return nil
}

// ToggleSetCompletion flips a set's completed flag. Completing a set
// restarts the rest countdown at the full rest duration, even if one is
// already running. Un-completing leaves the countdown alone. Reports false
// if the set does not exist.
func (s *Session) ToggleSetCompletion(exerciseID, setID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.find(exerciseID, setID)
	if set == nil {
		return false
	}
	set.Completed = !set.Completed
	if set.Completed {
		s.rest = RestState{Active: true, Remaining: s.restSeconds}
		s.restStarts++
	}
	return true
}

// AdjustSetValue adds delta to a set's weight or reps, clamping at 0.
// Reports false if the set or field does not exist.
func (s *Session) AdjustSetValue(exerciseID, setID int, field Field, delta int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.find(exerciseID, setID)
	if set == nil {
		return false
	}
	switch field {
	case FieldWeight:
		set.Weight = max(0, set.Weight+delta)
	case FieldReps:
		set.Reps = max(0, set.Reps+delta)
	default:
		return false
	}
	return true
}

// PauseResume toggles the elapsed timer and returns the new paused state.
// The rest countdown is not affected.
func (s *Session) PauseResume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = !s.paused
	return s.paused
}

// ExtendRest adds seconds to an active rest countdown. Reports false and
// does nothing while rest is idle.
func (s *Session) ExtendRest(seconds int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.rest.Active {
		return false
	}
	s.rest.Remaining += seconds
	return true
}

// SkipRest ends the rest countdown.
func (s *Session) SkipRest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rest = RestState{}
}

// TickElapsed advances the elapsed timer by one second unless paused.
func (s *Session) TickElapsed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		s.elapsed++
	}
}

// TickRest counts the rest timer down by one second. Reaching zero ends rest.
func (s *Session) TickRest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.rest.Active {
		return
	}
	s.rest.Remaining--
	if s.rest.Remaining <= 0 {
		s.rest = RestState{}
	}
}

// CompletedSetCount counts completed sets across all exercises.
func (s *Session) CompletedSetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedLocked()
}

// TotalSetCount counts all sets across all exercises.
func (s *Session) TotalSetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

// CanFinish reports whether at least one set is completed.
func (s *Session) CanFinish() bool {
	return s.CompletedSetCount() > 0
}

func (s *Session) completedLocked() int {
	n := 0
	for _, ex := range s.exercises {
		for _, set := range ex.Sets {
			if set.Completed {
				n++
			}
		}
	}
	return n
}

func (s *Session) totalLocked() int {
	n := 0
	for _, ex := range s.exercises {
		n += len(ex.Sets)
	}
	return n
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	completed := s.completedLocked()
	return Snapshot{
		Exercises:      copyBlocks(s.exercises),
		ElapsedSeconds: s.elapsed,
		Paused:         s.paused,
		Rest:           s.rest,
		CompletedSets:  completed,
		TotalSets:      s.totalLocked(),
		CanFinish:      completed > 0,
	}
}

// timers reports which periodic ticks the session currently needs.
func (s *Session) timers() (elapsed, rest bool, restStart uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.paused, s.rest.Active, s.restStarts
}

func copyBlocks(in []ExerciseBlock) []ExerciseBlock {
	out := make([]ExerciseBlock, len(in))
	for i, ex := range in {
		sets := make([]SetEntry, len(ex.Sets))
		copy(sets, ex.Sets)
		out[i] = ExerciseBlock{ID: ex.ID, Name: ex.Name, Sets: sets}
	}
	return out
}
