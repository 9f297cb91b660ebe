// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/nutriplan/dietplan/internal/domain/nutrition"
	"github.com/nutriplan/dietplan/internal/domain/plan"
	"github.com/nutriplan/dietplan/internal/domain/profile"
)

// PlanService defines the use cases behind the plan form and the JSON API
type PlanService interface {
	// Generate runs the full pipeline for one submission. An error is returned
	// only when no plan could be produced; lookup and render failures are
	// reported inside the result.
	Generate(ctx context.Context, p *profile.UserProfile) (*PlanResult, error)

	// LookupNutrition fetches the facts for a single food
	LookupNutrition(ctx context.Context, food string) (*nutrition.Info, error)
}

// PlanResult is everything produced for one submission
type PlanResult struct {
	Profile   *profile.UserProfile
	Plan      *plan.DietPlan
	Nutrition []FoodNutrition

	// Document is nil when rendering failed; RenderErr then holds the reason.
	Document  *plan.Document
	RenderErr error
}

// FoodNutrition is the lookup outcome for one custom food
type FoodNutrition struct {
	Food string
	Info *nutrition.Info
	Err  error
}

// NutritionByFood returns the successful lookups keyed by food
func (r *PlanResult) NutritionByFood() map[string]*nutrition.Info {
	out := make(map[string]*nutrition.Info, len(r.Nutrition))
	for _, fn := range r.Nutrition {
		if fn.Err == nil && fn.Info != nil {
			out[fn.Food] = fn.Info
		}
	}
	return out
}
