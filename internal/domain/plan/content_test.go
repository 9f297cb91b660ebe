package plan_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriplan/dietplan/internal/domain/nutrition"
	"github.com/nutriplan/dietplan/internal/domain/plan"
	"github.com/nutriplan/dietplan/test/testutils"
)

func texts(blocks []plan.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Text
	}
	return out
}

func TestBuildContent_Order(t *testing.T) {
	p := testutils.NewProfileBuilder().
		WithName("Asha").
		WithAge(30).
		WithMeasurements(165, 60).
		WithAllergies("Peanuts").
		MustBuild()

	blocks := plan.BuildContent(plan.DocumentInput{
		Profile: p,
		Plan:    &plan.DietPlan{Text: "Breakfast: oats\nLunch: dal"},
	})

	assert.Equal(t, []string{
		"Personalized Diet Plan for Asha",
		"Age: 30, Gender: Male",
		"Height: 165 cm, Weight: 60 kg",
		"Goal: Weight Loss, Diet Type: Veg",
		"Allergies: Peanuts",
		plan.HeadingPlan,
		"Breakfast: oats\nLunch: dal",
	}, texts(blocks))
	assert.Equal(t, plan.BlockTitle, blocks[0].Kind)
	assert.Equal(t, plan.BlockBody, blocks[len(blocks)-1].Kind)
}

func TestBuildContent_OmitsEmptyAllergies(t *testing.T) {
	p := testutils.NewProfileBuilder().WithAllergies("").MustBuild()

	blocks := plan.BuildContent(plan.DocumentInput{Profile: p, Plan: &plan.DietPlan{Text: "PLAN"}})

	for _, text := range texts(blocks) {
		assert.NotContains(t, text, "Allergies")
	}
	assert.NotContains(t, texts(blocks), plan.HeadingFoods)
}

func TestBuildContent_CustomFoodsSkipEmptyEntries(t *testing.T) {
	p := testutils.NewProfileBuilder().WithCustomFoods("Avocado, Salmon, , Quinoa").MustBuild()

	blocks := plan.BuildContent(plan.DocumentInput{Profile: p, Plan: &plan.DietPlan{Text: "PLAN"}})

	assert.Contains(t, texts(blocks), plan.HeadingFoods)
	assert.Equal(t, []string{"- Avocado", "- Salmon", "- Quinoa"}, plan.Items(blocks))
}

func TestBuildContent_AppendsNutritionSummary(t *testing.T) {
	p := testutils.NewProfileBuilder().WithCustomFoods("Avocado, Quinoa").MustBuild()

	blocks := plan.BuildContent(plan.DocumentInput{
		Profile: p,
		Plan:    &plan.DietPlan{Text: "PLAN"},
		Nutrition: map[string]*nutrition.Info{
			"Avocado": testutils.NutritionInfo("avocado"),
		},
	})

	items := plan.Items(blocks)
	require.Len(t, items, 2)
	assert.Equal(t, "- Avocado (Calories: 160 kcal, Protein: 2 g, Carbs: 8.5 g, Fat: 14.7 g)", items[0])
	assert.Equal(t, "- Quinoa", items[1])
}

func TestBuildContent_PlanTextVerbatim(t *testing.T) {
	text := "**Breakfast**\n  - poha  \n\n**Dinner**: paneer"
	p := testutils.NewProfileFactory(42).Profile()

	blocks := plan.BuildContent(plan.DocumentInput{Profile: p, Plan: &plan.DietPlan{Text: text}})

	var body string
	for _, b := range blocks {
		if b.Kind == plan.BlockBody {
			body = b.Text
		}
	}
	assert.Equal(t, text, body)
}

func TestFilename(t *testing.T) {
	tests := map[string]string{
		"Varun Kumar":      "Varun_Kumar_diet_plan.pdf",
		"  Asha  ":         "Asha_diet_plan.pdf",
		"../../etc/passwd": "etc_passwd_diet_plan.pdf",
		`a"b`:              "a_b_diet_plan.pdf",
		"   ":              "user_diet_plan.pdf",
	}

	for name, want := range tests {
		got := plan.Filename(name)
		assert.Equal(t, want, got, name)
		assert.False(t, strings.ContainsAny(got, `/" `), got)
	}
}
