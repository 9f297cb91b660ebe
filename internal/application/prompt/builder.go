// Package prompt turns a user profile into the instruction sent to the
// chat-completion model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/nutriplan/dietplan/internal/domain/profile"
)

// Build returns the user message for a one-day diet plan. The output depends
// only on the profile, so equal profiles always produce identical prompts.
func Build(p *profile.UserProfile) string {
	var b strings.Builder

	b.WriteString("You are a certified nutritionist. Create a personalized one-day diet plan for the following person.\n\n")

	b.WriteString("Profile:\n")
	b.WriteString(fmt.Sprintf("- Name: %s\n", p.Name()))
	b.WriteString(fmt.Sprintf("- Age: %d years\n", p.Age()))
	b.WriteString(fmt.Sprintf("- Height: %d cm\n", p.HeightCM()))
	b.WriteString(fmt.Sprintf("- Weight: %d kg\n", p.WeightKG()))
	b.WriteString(fmt.Sprintf("- Gender: %s\n", p.Gender()))
	b.WriteString(fmt.Sprintf("- Diet type: %s\n", p.DietType()))
	if p.HasAllergies() {
		b.WriteString(fmt.Sprintf("- Allergies: %s (never include these)\n", p.Allergies()))
	} else {
		b.WriteString("- Allergies: no known allergies\n")
	}
	b.WriteString(fmt.Sprintf("- Preferred cuisine: %s\n", p.Cuisine()))
	b.WriteString(fmt.Sprintf("- Activity level: %s\n", p.ActivityLevel()))
	b.WriteString(fmt.Sprintf("- Goal: %s\n", p.Goal()))
	b.WriteString(fmt.Sprintf("- Budget: %s\n", p.Budget()))

	if len(p.CustomFoodList()) > 0 {
		b.WriteString(fmt.Sprintf("- Foods to include where sensible: %s\n", p.CustomFoods()))
	}

	b.WriteString("\nStructure the plan with these sections:\n")
	b.WriteString("1. Daily calorie target with a short justification based on the profile\n")
	b.WriteString("2. Breakfast\n")
	b.WriteString("3. Lunch\n")
	b.WriteString("4. Snacks\n")
	b.WriteString("5. Dinner\n")
	b.WriteString("6. Hydration and general tips\n")

	b.WriteString("\nFor every meal list the dishes with approximate portions and calories. ")
	b.WriteString("Keep the dishes affordable for the stated budget and typical of the preferred cuisine.")

	return b.String()
}
