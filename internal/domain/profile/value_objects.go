package profile

// Enumerations offered by the profile form. The string values are what the
// user sees and what is sent to the model, so they are kept in display case.

// Gender represents the user's gender
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// DietType represents dietary preference
type DietType string

const (
	DietTypeVeg    DietType = "Veg"
	DietTypeNonVeg DietType = "Non-Veg"
	DietTypeVegan  DietType = "Vegan"
)

// Cuisine represents the preferred cuisine
type Cuisine string

const (
	CuisineIndian        Cuisine = "Indian"
	CuisineChinese       Cuisine = "Chinese"
	CuisineAmerican      Cuisine = "American"
	CuisineItalian       Cuisine = "Italian"
	CuisineMexican       Cuisine = "Mexican"
	CuisineMediterranean Cuisine = "Mediterranean"
)

// ActivityLevel represents daily physical activity
type ActivityLevel string

const (
	ActivityLow      ActivityLevel = "Low"
	ActivityModerate ActivityLevel = "Moderate"
	ActivityHigh     ActivityLevel = "High"
)

// Goal represents what the plan should achieve
type Goal string

const (
	GoalWeightLoss  Goal = "Weight Loss"
	GoalMuscleGain  Goal = "Muscle Gain"
	GoalMaintenance Goal = "Maintenance"
)

// Budget represents the food budget
type Budget string

const (
	BudgetLow    Budget = "Low"
	BudgetMedium Budget = "Medium"
	BudgetHigh   Budget = "High"
)

// Option lists, in form order. The first entry is the form default.
var (
	Genders        = []Gender{GenderMale, GenderFemale, GenderOther}
	DietTypes      = []DietType{DietTypeVeg, DietTypeNonVeg, DietTypeVegan}
	Cuisines       = []Cuisine{CuisineIndian, CuisineChinese, CuisineAmerican, CuisineItalian, CuisineMexican, CuisineMediterranean}
	ActivityLevels = []ActivityLevel{ActivityLow, ActivityModerate, ActivityHigh}
	Goals          = []Goal{GoalWeightLoss, GoalMuscleGain, GoalMaintenance}
	Budgets        = []Budget{BudgetLow, BudgetMedium, BudgetHigh}
)

func (g Gender) Valid() bool        { return contains(Genders, g) }
func (d DietType) Valid() bool      { return contains(DietTypes, d) }
func (c Cuisine) Valid() bool       { return contains(Cuisines, c) }
func (a ActivityLevel) Valid() bool { return contains(ActivityLevels, a) }
func (g Goal) Valid() bool          { return contains(Goals, g) }
func (b Budget) Valid() bool        { return contains(Budgets, b) }

func contains[T comparable](options []T, v T) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
