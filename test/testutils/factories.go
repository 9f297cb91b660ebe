// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/nutriplan/dietplan/internal/domain/nutrition"
	"github.com/nutriplan/dietplan/internal/domain/profile"
)

// ProfileFactory provides methods to create test profiles
type ProfileFactory struct {
	faker *gofakeit.Faker
}

// NewProfileFactory creates a new profile factory with seeded faker
func NewProfileFactory(seed int64) *ProfileFactory {
	return &ProfileFactory{
		faker: gofakeit.New(seed),
	}
}

// Input returns a random input that passes validation
func (f *ProfileFactory) Input() profile.Input {
	foods := make([]string, f.faker.Number(0, 3))
	for i := range foods {
		foods[i] = f.faker.Fruit()
	}

	allergies := ""
	if f.faker.Bool() {
		allergies = strings.Join([]string{f.faker.Noun(), f.faker.Noun()}, ", ")
	}

	return profile.Input{
		Name:          f.faker.Name(),
		Age:           f.faker.Number(12, 100),
		HeightCM:      f.faker.Number(100, 220),
		WeightKG:      f.faker.Number(30, 150),
		Gender:        profile.Genders[f.faker.Number(0, len(profile.Genders)-1)],
		DietType:      profile.DietTypes[f.faker.Number(0, len(profile.DietTypes)-1)],
		Allergies:     allergies,
		Cuisine:       profile.Cuisines[f.faker.Number(0, len(profile.Cuisines)-1)],
		ActivityLevel: profile.ActivityLevels[f.faker.Number(0, len(profile.ActivityLevels)-1)],
		Goal:          profile.Goals[f.faker.Number(0, len(profile.Goals)-1)],
		Budget:        profile.Budgets[f.faker.Number(0, len(profile.Budgets)-1)],
		CustomFoods:   strings.Join(foods, ", "),
	}
}

// Profile returns a random valid profile. It panics if the generated input
// does not validate, which would be a factory bug.
func (f *ProfileFactory) Profile() *profile.UserProfile {
	p, err := profile.New(f.Input())
	if err != nil {
		panic(err)
	}
	return p
}

// ProfileBuilder provides a fluent interface for building test profiles
type ProfileBuilder struct {
	input profile.Input
}

// NewProfileBuilder creates a new profile builder starting from the form defaults
func NewProfileBuilder() *ProfileBuilder {
	return &ProfileBuilder{input: profile.Defaults()}
}

// WithName sets the profile name
func (b *ProfileBuilder) WithName(name string) *ProfileBuilder {
	b.input.Name = name
	return b
}

// WithAge sets the age
func (b *ProfileBuilder) WithAge(age int) *ProfileBuilder {
	b.input.Age = age
	return b
}

// WithMeasurements sets height and weight
func (b *ProfileBuilder) WithMeasurements(heightCM, weightKG int) *ProfileBuilder {
	b.input.HeightCM = heightCM
	b.input.WeightKG = weightKG
	return b
}

// WithAllergies sets the allergies
func (b *ProfileBuilder) WithAllergies(allergies string) *ProfileBuilder {
	b.input.Allergies = allergies
	return b
}

// WithCustomFoods sets the comma-separated custom food list
func (b *ProfileBuilder) WithCustomFoods(foods string) *ProfileBuilder {
	b.input.CustomFoods = foods
	return b
}

// WithGoal sets the goal
func (b *ProfileBuilder) WithGoal(goal profile.Goal) *ProfileBuilder {
	b.input.Goal = goal
	return b
}

// WithDietType sets the diet type
func (b *ProfileBuilder) WithDietType(diet profile.DietType) *ProfileBuilder {
	b.input.DietType = diet
	return b
}

// Input returns the raw input
func (b *ProfileBuilder) Input() profile.Input {
	return b.input
}

// Build validates and returns the profile
func (b *ProfileBuilder) Build() (*profile.UserProfile, error) {
	return profile.New(b.input)
}

// MustBuild is Build for inputs known to be valid
func (b *ProfileBuilder) MustBuild() *profile.UserProfile {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

// NutritionInfo returns a fully populated nutrition record
func NutritionInfo(name string) *nutrition.Info {
	return &nutrition.Info{
		Name:     name,
		Calories: nutrition.Amount(160, "kcal"),
		Protein:  nutrition.Amount(2, "g"),
		Carbs:    nutrition.Amount(8.5, "g"),
		Fat:      nutrition.Amount(14.7, "g"),
	}
}

// Seed returns a seed suitable for NewProfileFactory
func Seed() int64 {
	return time.Now().UnixNano()
}
