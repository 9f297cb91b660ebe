package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriplan/dietplan/internal/domain/nutrition"
	"github.com/nutriplan/dietplan/internal/domain/plan"
	"github.com/nutriplan/dietplan/internal/domain/profile"
	"github.com/nutriplan/dietplan/internal/ports/inbound"
	apperrors "github.com/nutriplan/dietplan/pkg/errors"
)

func TestParseFlags(t *testing.T) {
	opts := parseFlags([]string{
		"-name", "Asha Rao",
		"-age", "31",
		"-gender", "Female",
		"-goal", "Muscle Gain",
		"-foods", "apple, tofu",
		"-o", "out.pdf",
	})

	assert.Equal(t, "Asha Rao", opts.Input.Name)
	assert.Equal(t, 31, opts.Input.Age)
	assert.Equal(t, profile.GenderFemale, opts.Input.Gender)
	assert.Equal(t, profile.GoalMuscleGain, opts.Input.Goal)
	assert.Equal(t, "apple, tofu", opts.Input.CustomFoods)
	assert.Equal(t, "out.pdf", opts.Output)
	assert.Equal(t, profile.Defaults().HeightCM, opts.Input.HeightCM)
}

func TestRun_InvalidProfile(t *testing.T) {
	opts := parseFlags([]string{"-age", "5"})
	var stdout, stderr bytes.Buffer

	code := run(opts, &stdout, &stderr)

	assert.Equal(t, exitCodeUsage, code)
	assert.Contains(t, stderr.String(), profile.ErrAgeOutOfRange.Error())
	assert.Empty(t, stdout.String())
}

func TestReport_WritesDocument(t *testing.T) {
	dir := t.TempDir()
	result := &inbound.PlanResult{
		Plan: &plan.DietPlan{Text: "Breakfast: poha"},
		Nutrition: []inbound.FoodNutrition{
			{Food: "apple", Info: &nutrition.Info{Name: "apple", Calories: nutrition.Amount(52, "kcal")}},
			{Food: "rock", Err: apperrors.NewNotFoundError("food")},
		},
		Document: &plan.Document{Filename: "Asha_diet_plan.pdf", Data: []byte("%PDF-1.3\n%%EOF\n")},
	}
	var stdout, stderr bytes.Buffer

	code := report(result, dir, &stdout, &stderr)

	require.Equal(t, exitCodeSuccess, code, stderr.String())
	assert.Contains(t, stdout.String(), "Breakfast: poha")
	assert.Contains(t, stdout.String(), "apple: Calories: 52 kcal, Protein: N/A")
	assert.Contains(t, stdout.String(), "rock: unavailable (NOT_FOUND)")

	data, err := os.ReadFile(filepath.Join(dir, "Asha_diet_plan.pdf"))
	require.NoError(t, err)
	assert.Equal(t, result.Document.Data, data)
}

func TestReport_RenderFailure(t *testing.T) {
	result := &inbound.PlanResult{
		Plan:      &plan.DietPlan{Text: "Lunch: rajma"},
		RenderErr: apperrors.NewRenderError(assert.AnError),
	}
	var stdout, stderr bytes.Buffer

	code := report(result, t.TempDir(), &stdout, &stderr)

	assert.Equal(t, exitCodeFailure, code)
	assert.Contains(t, stdout.String(), "Lunch: rajma")
	assert.Contains(t, stderr.String(), "could not be generated")
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, apperrors.NewAPIError("groq", 401, "Invalid API Key"))

	assert.Contains(t, buf.String(), "Failed to generate diet plan: Invalid API Key")
	assert.Contains(t, buf.String(), "Status: 401")
}
