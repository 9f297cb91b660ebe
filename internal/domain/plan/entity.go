// Package plan contains the generated diet plan and the document built from it.
package plan

import (
	"regexp"
	"strings"

	"github.com/nutriplan/dietplan/internal/domain/nutrition"
	"github.com/nutriplan/dietplan/internal/domain/profile"
)

// ContentTypePDF is the media type of rendered documents
const ContentTypePDF = "application/pdf"

// DietPlan is the model's answer. The text is opaque and shown verbatim.
type DietPlan struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

// Document is a rendered, downloadable plan held in memory.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DocumentInput is everything a renderer needs.
type DocumentInput struct {
	Profile *profile.UserProfile
	Plan    *DietPlan
	// Nutrition maps a custom food entry, as returned by
	// profile.CustomFoodList, to its facts. Foods without a successful lookup
	// are simply absent.
	Nutrition map[string]*nutrition.Info
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Filename returns "<name>_diet_plan.pdf" with the name reduced to characters
// that are safe in a Content-Disposition header and on any file system.
func Filename(name string) string {
	base := strings.Trim(unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(name), "_"), "_")
	if base == "" {
		base = "user"
	}
	return base + "_diet_plan.pdf"
}
