package profile_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/nutriplan/dietplan/internal/domain/profile"
	apperrors "github.com/nutriplan/dietplan/pkg/errors"
	"github.com/nutriplan/dietplan/test/testutils"
)

// ProfileTestSuite provides a test suite for UserProfile
type ProfileTestSuite struct {
	suite.Suite
	factory *testutils.ProfileFactory
}

func (suite *ProfileTestSuite) SetupSuite() {
	suite.factory = testutils.NewProfileFactory(testutils.Seed())
}

func (suite *ProfileTestSuite) TestProfileCreation() {
	suite.Run("Defaults_ShouldValidate", func() {
		p, err := profile.New(profile.Defaults())

		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), "Varun Kumar", p.Name())
		assert.Equal(suite.T(), 24, p.Age())
		assert.Equal(suite.T(), 170, p.HeightCM())
		assert.Equal(suite.T(), 65, p.WeightKG())
		assert.Equal(suite.T(), profile.GenderMale, p.Gender())
		assert.Equal(suite.T(), profile.CuisineIndian, p.Cuisine())
		assert.False(suite.T(), p.HasAllergies())
	})

	suite.Run("RandomInputs_ShouldValidate", func() {
		for i := 0; i < 50; i++ {
			in := suite.factory.Input()
			p, err := profile.New(in)
			require.NoError(suite.T(), err, "%+v", in)
			assert.Equal(suite.T(), in.Age, p.Age())
		}
	})

	suite.Run("Strings_ShouldBeTrimmed", func() {
		in := profile.Defaults()
		in.Name = "  Asha  "
		in.Allergies = " Dairy "
		in.Gender = " Female"

		p, err := profile.New(in)

		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), "Asha", p.Name())
		assert.Equal(suite.T(), "Dairy", p.Allergies())
		assert.Equal(suite.T(), profile.GenderFemale, p.Gender())
	})

	suite.Run("InputRoundTrip", func() {
		in := suite.factory.Input()
		p, err := profile.New(in)
		require.NoError(suite.T(), err)

		again, err := profile.New(p.Input())
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), p, again)
	})
}

func (suite *ProfileTestSuite) TestProfileValidation() {
	tests := []struct {
		name   string
		mutate func(*profile.Input)
		want   error
		field  string
	}{
		{"EmptyName", func(in *profile.Input) { in.Name = "   " }, profile.ErrNameRequired, "name"},
		{"LongName", func(in *profile.Input) { in.Name = strings.Repeat("a", 101) }, profile.ErrNameTooLong, "name"},
		{"AgeTooLow", func(in *profile.Input) { in.Age = 11 }, profile.ErrAgeOutOfRange, "age"},
		{"AgeTooHigh", func(in *profile.Input) { in.Age = 101 }, profile.ErrAgeOutOfRange, "age"},
		{"HeightTooLow", func(in *profile.Input) { in.HeightCM = 99 }, profile.ErrHeightOutOfRange, "height_cm"},
		{"WeightTooHigh", func(in *profile.Input) { in.WeightKG = 151 }, profile.ErrWeightOutOfRange, "weight_kg"},
		{"UnknownGender", func(in *profile.Input) { in.Gender = "male" }, profile.ErrInvalidGender, "gender"},
		{"UnknownDiet", func(in *profile.Input) { in.DietType = "Keto" }, profile.ErrInvalidDietType, "diet_type"},
		{"UnknownCuisine", func(in *profile.Input) { in.Cuisine = "Thai" }, profile.ErrInvalidCuisine, "cuisine"},
		{"UnknownActivity", func(in *profile.Input) { in.ActivityLevel = "" }, profile.ErrInvalidActivity, "activity_level"},
		{"UnknownGoal", func(in *profile.Input) { in.Goal = "Bulk" }, profile.ErrInvalidGoal, "goal"},
		{"UnknownBudget", func(in *profile.Input) { in.Budget = "Free" }, profile.ErrInvalidBudget, "budget"},
		{"TooManyFoods", func(in *profile.Input) {
			in.CustomFoods = strings.Repeat("rice,", profile.MaxCustomFoods+1)
		}, profile.ErrTooManyCustomFoods, "custom_foods"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			in := profile.Defaults()
			tt.mutate(&in)

			p, err := profile.New(in)

			assert.Nil(suite.T(), p)
			require.Error(suite.T(), err)
			assert.True(suite.T(), errors.Is(err, tt.want), "got %v", err)
			assert.True(suite.T(), apperrors.Is(err, apperrors.CodeValidationFailed))

			appErr, _ := apperrors.As(err)
			verrs, ok := appErr.Metadata["validation_errors"].(apperrors.ValidationErrors)
			require.True(suite.T(), ok)
			require.Len(suite.T(), verrs, 1)
			assert.Equal(suite.T(), tt.field, verrs[0].Field)
		})
	}

	suite.Run("BoundariesAreInclusive", func() {
		in := profile.Defaults()
		in.Age, in.HeightCM, in.WeightKG = 12, 100, 30
		_, err := profile.New(in)
		assert.NoError(suite.T(), err)

		in.Age, in.HeightCM, in.WeightKG = 100, 220, 150
		_, err = profile.New(in)
		assert.NoError(suite.T(), err)
	})

	suite.Run("MultipleFieldsReported", func() {
		in := profile.Defaults()
		in.Age = 5
		in.Budget = "Free"

		_, err := profile.New(in)

		assert.ErrorIs(suite.T(), err, profile.ErrAgeOutOfRange)
		assert.ErrorIs(suite.T(), err, profile.ErrInvalidBudget)
	})
}

func (suite *ProfileTestSuite) TestCustomFoodList() {
	suite.Run("SkipsEmptySegments", func() {
		p := testutils.NewProfileBuilder().WithCustomFoods("Avocado, Salmon, , Quinoa").MustBuild()
		assert.Equal(suite.T(), []string{"Avocado", "Salmon", "Quinoa"}, p.CustomFoodList())
	})

	suite.Run("EmptyString", func() {
		p := testutils.NewProfileBuilder().WithCustomFoods("").MustBuild()
		assert.Empty(suite.T(), p.CustomFoodList())
	})
}

func TestProfileTestSuite(t *testing.T) {
	suite.Run(t, new(ProfileTestSuite))
}
