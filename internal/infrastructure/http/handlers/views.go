// Package handlers provides HTTP handlers for the plan form and the JSON API
package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nutriplan/dietplan/internal/domain/nutrition"
	"github.com/nutriplan/dietplan/internal/domain/plan"
	"github.com/nutriplan/dietplan/internal/domain/profile"
	"github.com/nutriplan/dietplan/internal/ports/inbound"
	"github.com/nutriplan/dietplan/internal/ports/outbound"
	apperrors "github.com/nutriplan/dietplan/pkg/errors"
)

// FormOptions are the choices offered by the profile form
type FormOptions struct {
	Genders        []profile.Gender
	DietTypes      []profile.DietType
	Cuisines       []profile.Cuisine
	ActivityLevels []profile.ActivityLevel
	Goals          []profile.Goal
	Budgets        []profile.Budget
}

var formOptions = FormOptions{
	Genders:        profile.Genders,
	DietTypes:      profile.DietTypes,
	Cuisines:       profile.Cuisines,
	ActivityLevels: profile.ActivityLevels,
	Goals:          profile.Goals,
	Budgets:        profile.Budgets,
}

// FormPage is the data behind the form page
type FormPage struct {
	Title   string
	Input   profile.Input
	Options FormOptions
	// FieldErrors lists validation problems with the submitted input
	FieldErrors []apperrors.ValidationError
	// Error describes a failed plan generation
	Error *PageError
}

// PageError is a failure shown above the form
type PageError struct {
	Message        string
	Details        string
	UpstreamStatus int
}

// ResultPage is the data behind the result page
type ResultPage struct {
	Title       string
	Input       profile.Input
	Plan        *plan.DietPlan
	Foods       []FoodView
	DownloadURL string
	Filename    string
	// DocumentError is set when the PDF could not be produced or stored
	DocumentError string
}

// FoodView is one custom food on the result page
type FoodView struct {
	Food    string
	Info    *nutrition.Info
	Warning string
}

func newPageError(err error) *PageError {
	appErr, ok := apperrors.As(err)
	if !ok {
		return &PageError{Message: "Failed to generate diet plan", Details: err.Error()}
	}

	pe := &PageError{
		Message:        "Failed to generate diet plan",
		Details:        appErr.Message,
		UpstreamStatus: appErr.UpstreamStatus,
	}
	if appErr.Details != "" && appErr.Details != appErr.Message {
		pe.Details = fmt.Sprintf("%s (%s)", appErr.Message, appErr.Details)
	}
	return pe
}

func foodWarning(food string, err error) string {
	switch apperrors.GetCode(err) {
	case apperrors.CodeNotFound:
		return fmt.Sprintf("No nutrition data found for %s", food)
	case apperrors.CodeConfig:
		return "Nutrition lookup is not configured"
	default:
		return fmt.Sprintf("Could not fetch nutrition data for %s", food)
	}
}

func foodViews(result *inbound.PlanResult) []FoodView {
	views := make([]FoodView, 0, len(result.Nutrition))
	for _, fn := range result.Nutrition {
		v := FoodView{Food: fn.Food, Info: fn.Info}
		if fn.Err != nil {
			v.Warning = foodWarning(fn.Food, fn.Err)
		}
		views = append(views, v)
	}
	return views
}

// DownloadPath is where a stored document can be fetched
func DownloadPath(token string) string {
	return "/downloads/" + token
}

// storeDocument saves doc for download. A failure is logged and reported as
// an empty token; the plan itself is still shown.
func storeDocument(ctx context.Context, store outbound.DocumentStore, doc *plan.Document, logger *zap.Logger) string {
	if store == nil || doc == nil {
		return ""
	}
	token, err := store.Save(ctx, doc)
	if err != nil {
		logger.Error("Failed to store document", zap.String("filename", doc.Filename), zap.Error(err))
		return ""
	}
	return token
}
