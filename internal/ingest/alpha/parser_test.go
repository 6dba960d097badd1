package alpha

import (
	"strings"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/go-cmp/cmp"
)

const upperLowerCSV = `
"Upper A";"2026-03-02 18:10 h";"0:58 hr"
"1. Bench Press · Barbell · 5 reps";"WU1 · 40 kg · 10 reps<br>WU2 · 62,5 kg · 5 reps"
#;KG;REPS;RIR
1;82,5;5;2
2;82,5;5;1
3;80;6;1
"2. Pull-ups · Bodyweight · 8 reps"
#;KG;REPS;RIR
1;+10;8;1
2;+0;9;0,5
"3. Overhead Press · Dumbbells · 10 reps · 1 dropset";"WU1 · 12,5 kg · 12 reps"
#;KG;REPS;RIR
1;22,5;10;2

"Lower A";"2026-03-04 7:05 h";"50 min"
"1. Romanian Deadlift · Barbell · 8 reps"
#;KG;REPS;RIR
1;100;8;2
2;100;8;2
`

// exerciseShape is the part of a parsed exercise that becomes exercise logs.
type exerciseShape struct {
	Name       string
	Equipment  string
	TargetReps int
	Warmups    int
	Working    []float64
}

func shapeOf(e models.AlphaExercise) exerciseShape {
	s := exerciseShape{Name: e.Name, Equipment: e.Equipment, TargetReps: e.TargetReps}
	for _, set := range e.Sets {
		if set.IsWarmup {
			s.Warmups++
			continue
		}
		s.Working = append(s.Working, set.WeightKg)
	}
	return s
}

// TestParseSessions reads two sessions with warmups, bodyweight-plus sets
// and header modifiers.
func TestParseSessions(t *testing.T) {
	sessions, err := Parse(strings.NewReader(upperLowerCSV))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}

	upper := sessions[0]
	if upper.Name != "Upper A" || upper.DurationSec != 58*60 {
		t.Errorf("upper = %q %ds", upper.Name, upper.DurationSec)
	}
	if want := time.Date(2026, 3, 2, 18, 10, 0, 0, time.UTC); !upper.Date.Equal(want) {
		t.Errorf("upper date = %v, want %v", upper.Date, want)
	}

	var got []exerciseShape
	for _, e := range upper.Exercises {
		got = append(got, shapeOf(e))
	}
	want := []exerciseShape{
		{Name: "Bench Press", Equipment: "Barbell", TargetReps: 5, Warmups: 2, Working: []float64{82.5, 82.5, 80}},
		{Name: "Pull-ups", Equipment: "Bodyweight", TargetReps: 8, Working: []float64{10, 0}},
		{Name: "Overhead Press", Equipment: "Dumbbells", TargetReps: 10, Warmups: 1, Working: []float64{22.5}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("upper exercises (-want +got):\n%s", diff)
	}

	pullups := upper.Exercises[1].Sets
	if !pullups[0].IsBodyweightPlus || !pullups[1].IsBodyweightPlus {
		t.Error("pull-up sets should be bodyweight-plus")
	}
	if pullups[1].RIR != 0.5 {
		t.Errorf("pull-up RIR = %v, want 0.5", pullups[1].RIR)
	}

	lower := sessions[1]
	if lower.Name != "Lower A" || lower.DurationSec != 50*60 || lower.Date.Hour() != 7 {
		t.Errorf("lower = %q %ds at %v", lower.Name, lower.DurationSec, lower.Date)
	}
	if len(lower.Exercises) != 1 || len(lower.Exercises[0].WorkingSets()) != 2 {
		t.Errorf("lower exercises = %+v", lower.Exercises)
	}
}

// TestParseWeight covers decimal commas and the +N bodyweight notation.
func TestParseWeight(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantBW bool
	}{
		{"82,5", 82.5, false},
		{"100", 100, false},
		{"+10", 10, true},
		{"+0", 0, true},
		{" 7,25 ", 7.25, false},
		{"n/a", 0, false},
	}
	for _, tt := range tests {
		got, bw := parseWeight(tt.in)
		if got != tt.want || bw != tt.wantBW {
			t.Errorf("parseWeight(%q) = %v, %v; want %v, %v", tt.in, got, bw, tt.want, tt.wantBW)
		}
	}
}

// TestParseWarmups splits the warmup field and skips unreadable parts.
func TestParseWarmups(t *testing.T) {
	got := parseWarmups("WU1 · 40 kg · 10 reps<br>garbage<br>WU2 · +5 kg · 6 reps")
	want := []models.AlphaSet{
		{Number: 1, WeightKg: 40, Reps: 10, IsWarmup: true},
		{Number: 2, WeightKg: 5, IsBodyweightPlus: true, Reps: 6, IsWarmup: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("warmups (-want +got):\n%s", diff)
	}
}

// TestParseDuration covers the hour and minute duration formats.
func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"0:58 hr", 3480},
		{"1:30 hr", 5400},
		{"50 min", 3000},
		{"", 0},
		{"soon", 0},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.in); got != tt.want {
			t.Errorf("parseDuration(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// TestParseEmptyInput returns no sessions and no error.
func TestParseEmptyInput(t *testing.T) {
	sessions, err := Parse(strings.NewReader(""))
	if err != nil || len(sessions) != 0 {
		t.Errorf("Parse(empty) = %d sessions, %v", len(sessions), err)
	}
}

// TestParseRejectsOrphanRows fails on sets or exercises outside their parent.
func TestParseRejectsOrphanRows(t *testing.T) {
	for name, in := range map[string]string{
		"set without exercise":     "\"Upper A\";\"2026-03-02 18:10 h\";\"0:58 hr\"\n1;80;5;1\n",
		"exercise without session": "\"1. Bench Press · Barbell · 5 reps\"\n",
	} {
		if _, err := Parse(strings.NewReader(in)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
