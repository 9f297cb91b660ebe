// Package profile holds the user profile collected by the plan form.
// A UserProfile can only be obtained through New, so every profile seen by the
// rest of the system is already trimmed and range checked.
package profile

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/nutriplan/dietplan/pkg/errors"
)

// MaxCustomFoods bounds the number of nutrition lookups a single profile can
// trigger.
const MaxCustomFoods = 10

// Input is the raw, unvalidated profile as submitted by a form or API client.
type Input struct {
	Name          string        `json:"name" validate:"required,max=100"`
	Age           int           `json:"age" validate:"min=12,max=100"`
	HeightCM      int           `json:"height_cm" validate:"min=100,max=220"`
	WeightKG      int           `json:"weight_kg" validate:"min=30,max=150"`
	Gender        Gender        `json:"gender" validate:"enum"`
	DietType      DietType      `json:"diet_type" validate:"enum"`
	Allergies     string        `json:"allergies" validate:"max=500"`
	Cuisine       Cuisine       `json:"cuisine" validate:"enum"`
	ActivityLevel ActivityLevel `json:"activity_level" validate:"enum"`
	Goal          Goal          `json:"goal" validate:"enum"`
	Budget        Budget        `json:"budget" validate:"enum"`
	CustomFoods   string        `json:"custom_foods" validate:"max=500"`
}

// Defaults returns the values the form is pre-filled with.
func Defaults() Input {
	return Input{
		Name:          "Varun Kumar",
		Age:           24,
		HeightCM:      170,
		WeightKG:      65,
		Gender:        Genders[0],
		DietType:      DietTypes[0],
		Cuisine:       Cuisines[0],
		ActivityLevel: ActivityLevels[0],
		Goal:          Goals[0],
		Budget:        Budgets[0],
	}
}

// UserProfile is a validated, immutable profile.
type UserProfile struct {
	name          string
	age           int
	heightCM      int
	weightKG      int
	gender        Gender
	dietType      DietType
	allergies     string
	cuisine       Cuisine
	activityLevel ActivityLevel
	goal          Goal
	budget        Budget
	customFoods   string
}

// New validates the input and builds a UserProfile. Validation failures are
// returned as a VALIDATION_FAILED AppError listing every offending field; the
// matching sentinel errors are reachable with errors.Is.
func New(in Input) (*UserProfile, error) {
	in = trim(in)

	var fieldErrs []apperrors.ValidationError
	var causes []error

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, apperrors.Wrap(err, "profile validation failed")
		}
		for _, fe := range verrs {
			sentinel := fieldError(fe)
			causes = append(causes, sentinel)
			fieldErrs = append(fieldErrs, apperrors.ValidationError{
				Field:   fe.Field(),
				Value:   fe.Value(),
				Tag:     fe.Tag(),
				Message: sentinel.Error(),
			})
		}
	}

	if n := len(SplitFoods(in.CustomFoods)); n > MaxCustomFoods {
		causes = append(causes, ErrTooManyCustomFoods)
		fieldErrs = append(fieldErrs, apperrors.ValidationError{
			Field:   "custom_foods",
			Value:   n,
			Tag:     "max_items",
			Message: ErrTooManyCustomFoods.Error(),
		})
	}

	if len(fieldErrs) > 0 {
		return nil, apperrors.NewValidationErrors(fieldErrs).WithCause(errors.Join(causes...))
	}

	return &UserProfile{
		name:          in.Name,
		age:           in.Age,
		heightCM:      in.HeightCM,
		weightKG:      in.WeightKG,
		gender:        in.Gender,
		dietType:      in.DietType,
		allergies:     in.Allergies,
		cuisine:       in.Cuisine,
		activityLevel: in.ActivityLevel,
		goal:          in.Goal,
		budget:        in.Budget,
		customFoods:   in.CustomFoods,
	}, nil
}

func (p *UserProfile) Name() string                 { return p.name }
func (p *UserProfile) Age() int                     { return p.age }
func (p *UserProfile) HeightCM() int                { return p.heightCM }
func (p *UserProfile) WeightKG() int                { return p.weightKG }
func (p *UserProfile) Gender() Gender               { return p.gender }
func (p *UserProfile) DietType() DietType           { return p.dietType }
func (p *UserProfile) Allergies() string            { return p.allergies }
func (p *UserProfile) Cuisine() Cuisine             { return p.cuisine }
func (p *UserProfile) ActivityLevel() ActivityLevel { return p.activityLevel }
func (p *UserProfile) Goal() Goal                   { return p.goal }
func (p *UserProfile) Budget() Budget               { return p.budget }
func (p *UserProfile) CustomFoods() string          { return p.customFoods }

// HasAllergies reports whether the user listed any allergies
func (p *UserProfile) HasAllergies() bool {
	return p.allergies != ""
}

// CustomFoodList returns the trimmed, non-empty custom food entries in the
// order they were given.
func (p *UserProfile) CustomFoodList() []string {
	return SplitFoods(p.customFoods)
}

// Input returns the profile as an Input, e.g. to re-populate a form.
func (p *UserProfile) Input() Input {
	return Input{
		Name:          p.name,
		Age:           p.age,
		HeightCM:      p.heightCM,
		WeightKG:      p.weightKG,
		Gender:        p.gender,
		DietType:      p.dietType,
		Allergies:     p.allergies,
		Cuisine:       p.cuisine,
		ActivityLevel: p.activityLevel,
		Goal:          p.goal,
		Budget:        p.budget,
		CustomFoods:   p.customFoods,
	}
}

// SplitFoods splits a comma-separated food list, dropping blank entries.
func SplitFoods(s string) []string {
	var foods []string
	for _, part := range strings.Split(s, ",") {
		if food := strings.TrimSpace(part); food != "" {
			foods = append(foods, food)
		}
	}
	return foods
}

func trim(in Input) Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Allergies = strings.TrimSpace(in.Allergies)
	in.CustomFoods = strings.TrimSpace(in.CustomFoods)
	in.Gender = Gender(strings.TrimSpace(string(in.Gender)))
	in.DietType = DietType(strings.TrimSpace(string(in.DietType)))
	in.Cuisine = Cuisine(strings.TrimSpace(string(in.Cuisine)))
	in.ActivityLevel = ActivityLevel(strings.TrimSpace(string(in.ActivityLevel)))
	in.Goal = Goal(strings.TrimSpace(string(in.Goal)))
	in.Budget = Budget(strings.TrimSpace(string(in.Budget)))
	return in
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterValidation("enum", validateEnum)
	return v
}

func validateEnum(fl validator.FieldLevel) bool {
	e, ok := fl.Field().Interface().(interface{ Valid() bool })
	return ok && e.Valid()
}

var fieldSentinels = map[string]error{
	"age":            ErrAgeOutOfRange,
	"height_cm":      ErrHeightOutOfRange,
	"weight_kg":      ErrWeightOutOfRange,
	"gender":         ErrInvalidGender,
	"diet_type":      ErrInvalidDietType,
	"cuisine":        ErrInvalidCuisine,
	"activity_level": ErrInvalidActivity,
	"goal":           ErrInvalidGoal,
	"budget":         ErrInvalidBudget,
	"allergies":      ErrAllergiesTooLong,
	"custom_foods":   ErrCustomFoodsTooLong,
}

func fieldError(fe validator.FieldError) error {
	if fe.Field() == "name" {
		if fe.Tag() == "required" {
			return ErrNameRequired
		}
		return ErrNameTooLong
	}
	if err, ok := fieldSentinels[fe.Field()]; ok {
		return err
	}
	return errors.New(fe.Error())
}
