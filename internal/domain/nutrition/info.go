// Package nutrition describes per-food nutrition facts returned by a lookup.
package nutrition

import (
	"strconv"
	"strings"
)

// Unavailable is shown in place of a nutrient the provider did not report.
const Unavailable = "N/A"

// Nutrient is a single nutrient amount. The zero value is unavailable.
type Nutrient struct {
	Amount    float64 `json:"amount"`
	Unit      string  `json:"unit"`
	Available bool    `json:"available"`
}

// Amount returns an available nutrient
func Amount(amount float64, unit string) Nutrient {
	return Nutrient{Amount: amount, Unit: unit, Available: true}
}

// String formats the nutrient as "<amount> <unit>" or N/A
func (n Nutrient) String() string {
	if !n.Available {
		return Unavailable
	}
	s := strconv.FormatFloat(n.Amount, 'f', -1, 64)
	if n.Unit == "" {
		return s
	}
	return s + " " + n.Unit
}

// Info holds the nutrition facts for one food, per 100 g.
type Info struct {
	Name     string   `json:"name"`
	Calories Nutrient `json:"calories"`
	Protein  Nutrient `json:"protein"`
	Carbs    Nutrient `json:"carbs"`
	Fat      Nutrient `json:"fat"`
}

// Summary renders the facts on one line, e.g.
// "Calories: 160 kcal, Protein: 2 g, Carbs: 8.5 g, Fat: 14.7 g".
func (i *Info) Summary() string {
	parts := []string{
		"Calories: " + i.Calories.String(),
		"Protein: " + i.Protein.String(),
		"Carbs: " + i.Carbs.String(),
		"Fat: " + i.Fat.String(),
	}
	return strings.Join(parts, ", ")
}

// NormalizeName folds a food name into a lookup key.
func NormalizeName(food string) string {
	return strings.ToLower(strings.Join(strings.Fields(food), " "))
}
