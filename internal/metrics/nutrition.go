package metrics

import "github.com/claude/liftlog/internal/models"

// NutritionGoals are a user's daily macro targets.
type NutritionGoals struct {
	Calories int     `json:"calories" yaml:"calories"`
	ProteinG float64 `json:"protein_g" yaml:"protein_g"`
	CarbsG   float64 `json:"carbs_g" yaml:"carbs_g"`
	FatsG    float64 `json:"fats_g" yaml:"fats_g"`
}

// DefaultNutritionGoals returns the goals used when none are configured.
func DefaultNutritionGoals() NutritionGoals {
	return NutritionGoals{Calories: 2200, ProteinG: 150, CarbsG: 250, FatsG: 70}
}

// MacroProgress is a consumed amount against its goal.
type MacroProgress struct {
	Consumed float64 `json:"consumed"`
	Goal     float64 `json:"goal"`
	Percent  float64 `json:"percent"`
}

// NutritionDay totals one day of nutrition entries.
type NutritionDay struct {
	Entries  int           `json:"entries"`
	Calories MacroProgress `json:"calories"`
	Protein  MacroProgress `json:"protein"`
	Carbs    MacroProgress `json:"carbs"`
	Fats     MacroProgress `json:"fats"`
}

// NutritionTotals sums entries against goals. Missing macros count as 0 and
// percentages are capped at 100.
func NutritionTotals(entries []models.NutritionEntry, goals NutritionGoals) NutritionDay {
	var cal, p, c, f float64
	for _, e := range entries {
		cal += float64(e.Calories)
		p += deref(e.ProteinG)
		c += deref(e.CarbsG)
		f += deref(e.FatsG)
	}
	return NutritionDay{
		Entries:  len(entries),
		Calories: progress(cal, float64(goals.Calories)),
		Protein:  progress(p, goals.ProteinG),
		Carbs:    progress(c, goals.CarbsG),
		Fats:     progress(f, goals.FatsG),
	}
}

func progress(consumed, goal float64) MacroProgress {
	mp := MacroProgress{Consumed: consumed, Goal: goal}
	if goal > 0 {
		mp.Percent = min(consumed/goal*100, 100)
	}
	return mp
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
