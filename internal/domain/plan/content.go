package plan

import (
	"fmt"
)

// BlockKind tells a renderer how to style a block.
type BlockKind int

const (
	BlockTitle BlockKind = iota
	BlockLine
	BlockHeading
	BlockBody
	BlockItem
)

// Block is one paragraph of document content.
type Block struct {
	Kind BlockKind
	Text string
}

// Section headings
const (
	HeadingPlan  = "Your Personalized Diet Plan"
	HeadingFoods = "Your Custom Foods"
)

// BuildContent lays out the document in reading order: title, profile lines
// (allergies only when present), the plan text verbatim and, when the profile
// lists custom foods, one item per food with its nutrition summary if known.
func BuildContent(in DocumentInput) []Block {
	p := in.Profile

	blocks := []Block{
		{Kind: BlockTitle, Text: "Personalized Diet Plan for " + p.Name()},
		{Kind: BlockLine, Text: fmt.Sprintf("Age: %d, Gender: %s", p.Age(), p.Gender())},
		{Kind: BlockLine, Text: fmt.Sprintf("Height: %d cm, Weight: %d kg", p.HeightCM(), p.WeightKG())},
		{Kind: BlockLine, Text: fmt.Sprintf("Goal: %s, Diet Type: %s", p.Goal(), p.DietType())},
	}
	if p.HasAllergies() {
		blocks = append(blocks, Block{Kind: BlockLine, Text: "Allergies: " + p.Allergies()})
	}

	text := ""
	if in.Plan != nil {
		text = in.Plan.Text
	}
	blocks = append(blocks,
		Block{Kind: BlockHeading, Text: HeadingPlan},
		Block{Kind: BlockBody, Text: text},
	)

	foods := p.CustomFoodList()
	if len(foods) == 0 {
		return blocks
	}

	blocks = append(blocks, Block{Kind: BlockHeading, Text: HeadingFoods})
	for _, food := range foods {
		item := "- " + food
		if info, ok := in.Nutrition[food]; ok && info != nil {
			item += " (" + info.Summary() + ")"
		}
		blocks = append(blocks, Block{Kind: BlockItem, Text: item})
	}

	return blocks
}

// Items returns the text of every item block, in order.
func Items(blocks []Block) []string {
	var items []string
	for _, b := range blocks {
		if b.Kind == BlockItem {
			items = append(items, b.Text)
		}
	}
	return items
}
