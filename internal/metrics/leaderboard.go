package metrics

import (
	"fmt"
	"sort"
)

// LeaderboardKey selects the column a leaderboard is ranked by.
type LeaderboardKey string

const (
	ByWorkouts LeaderboardKey = "workouts"
	ByStreak   LeaderboardKey = "streak"
	ByVolume   LeaderboardKey = "volume"
)

// ParseLeaderboardKey maps a query value to a key. Empty means ByStreak.
func ParseLeaderboardKey(s string) (LeaderboardKey, error) {
	switch LeaderboardKey(s) {
	case "":
		return ByStreak, nil
	case ByWorkouts, ByStreak, ByVolume:
		return LeaderboardKey(s), nil
	}
	return "", fmt.Errorf("unknown leaderboard key %q", s)
}

// LeaderboardEntry is one user's standing. Each entry's metrics are
// computed from that user's records only.
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	UserID   int     `json:"user_id"`
	Name     string  `json:"name"`
	Workouts int     `json:"workouts"`
	Streak   int     `json:"streak"`
	VolumeKg float64 `json:"volume_kg"`
}

// RankLeaderboard sorts entries descending by key, breaking ties by name,
// and assigns 1-based ranks. The input slice is not modified.
func RankLeaderboard(entries []LeaderboardEntry, by LeaderboardKey) []LeaderboardEntry {
	ranked := make([]LeaderboardEntry, len(entries))
	copy(ranked, entries)

	value := func(e LeaderboardEntry) float64 {
		switch by {
		case ByWorkouts:
			return float64(e.Workouts)
		case ByVolume:
			return e.VolumeKg
		default:
			return float64(e.Streak)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		vi, vj := value(ranked[i]), value(ranked[j])
		if vi != vj {
			return vi > vj
		}
		return ranked[i].Name < ranked[j].Name
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
