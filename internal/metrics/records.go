package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// MaxPersonalRecords is the number of records ComputePersonalRecords keeps.
const MaxPersonalRecords = 5

// PersonalRecord is the heaviest logged set of one exercise.
type PersonalRecord struct {
	Exercise string    `json:"exercise"`
	Weight   float64   `json:"weight"`
	Unit     MassUnit  `json:"unit"`
	Reps     int       `json:"reps"`
	Date     time.Time `json:"date"`
}

// ComputePersonalRecords groups logs by exact exercise name and keeps the
// heaviest set of each, compared in unit. On equal weight the first log
// seen wins. The result is sorted by weight descending and truncated to
// MaxPersonalRecords. A missing weight counts as 0, so bodyweight-only
// exercises still get a record.
func ComputePersonalRecords(logs []models.ExerciseLogRecord, unit MassUnit) ([]PersonalRecord, error) {
	if err := checkMass(unit); err != nil {
		return nil, err
	}

	best := make(map[string]int)
	var records []PersonalRecord
	for i, l := range logs {
		if l.ID == uuid.Nil {
			return nil, fmt.Errorf("%w: exercise log at index %d has no id", ErrMalformedInput, i)
		}
		var w float64
		if l.WeightKg != nil {
			var err error
			if w, err = fromKg(*l.WeightKg, unit); err != nil {
				return nil, err
			}
		}
		reps := 0
		if l.Reps != nil {
			reps = *l.Reps
		}

		idx, ok := best[l.ExerciseName]
		if !ok {
			best[l.ExerciseName] = len(records)
			records = append(records, PersonalRecord{
				Exercise: l.ExerciseName,
				Weight:   w,
				Unit:     unit,
				Reps:     reps,
				Date:     l.CreatedAt,
			})
			continue
		}
		if w > records[idx].Weight {
			records[idx].Weight = w
			records[idx].Reps = reps
			records[idx].Date = l.CreatedAt
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Weight > records[j].Weight
	})
	if len(records) > MaxPersonalRecords {
		records = records[:MaxPersonalRecords]
	}
	if records == nil {
		records = []PersonalRecord{}
	}
	return records, nil
}
