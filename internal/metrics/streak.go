package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// day is a calendar date with the time of day discarded.
type day struct {
	y int
	m time.Month
	d int
}

func dayOf(t time.Time, loc *time.Location) day {
	y, m, d := t.In(loc).Date()
	return day{y, m, d}
}

func (d day) time(loc *time.Location) time.Time {
	return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, loc)
}

// prev returns the calendar day before d. Date normalization handles month
// and year boundaries; noon avoids DST edge cases.
func (d day) prev() day {
	t := time.Date(d.y, d.m, d.d, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return day{t.Year(), t.Month(), t.Day()}
}

// ComputeStreak counts consecutive calendar days with a completed workout,
// anchored at today or yesterday in now's location. Incomplete workouts are
// ignored, as are days after today. A streak whose most recent day is
// older than yesterday is 0.
func ComputeStreak(workouts []models.WorkoutRecord, now time.Time) (int, error) {
	loc := now.Location()
	today := dayOf(now, loc)
	end := today.time(loc).AddDate(0, 0, 1)

	seen := make(map[day]bool)
	var days []time.Time
	for i, w := range workouts {
		if w.ID == uuid.Nil {
			return 0, fmt.Errorf("%w: workout at index %d has no id", ErrMalformedInput, i)
		}
		if w.CompletedAt == nil {
			continue
		}
		d := dayOf(*w.CompletedAt, loc)
		if seen[d] || !d.time(loc).Before(end) {
			continue
		}
		seen[d] = true
		days = append(days, d.time(loc))
	}
	if len(days) == 0 {
		return 0, nil
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	cursor := dayOf(days[0], loc)
	if cursor != today && cursor != today.prev() {
		return 0, nil
	}

	streak := 1
	for _, t := range days[1:] {
		d := dayOf(t, loc)
		if d != cursor.prev() {
			break
		}
		streak++
		cursor = d
	}
	return streak, nil
}
