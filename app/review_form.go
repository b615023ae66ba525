package app

import (
	"fmt"

	"imagematch/domain"
)

const formPrefix = "images"

type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ReviewItem is one editable row. It deliberately has no zillow id: the
// reviewer sees the picture and picks a category, nothing else.
type ReviewItem struct {
	Index         int    `json:"index"`
	ID            int64  `json:"id"`
	URL           string `json:"url"`
	Category      string `json:"category"`
	IDField       string `json:"idField"`
	CategoryField string `json:"categoryField"`
}

type ReviewForm struct {
	Items   []ReviewItem `json:"items"`
	Choices []Choice     `json:"choices"`
	Total   int          `json:"total"`
}

// UnsetChoice is the chooser entry for "no category". Submitting it counts as
// an invalid value, not as clearing the label.
var UnsetChoice = Choice{Value: "", Label: "---------"}

func CategoryChoices() []Choice {
	choices := []Choice{UnsetChoice}
	for _, c := range domain.Categories() {
		choices = append(choices, Choice{Value: string(c), Label: string(c)})
	}
	return choices
}

// RenderBatch builds the display model for a batch. It is a pure function of
// its input.
func RenderBatch(images []domain.Image) ReviewForm {
	items := make([]ReviewItem, 0, len(images))
	for i, img := range images {
		current := ""
		if img.Category != nil {
			current = string(*img.Category)
		}
		items = append(items, ReviewItem{
			Index:         i,
			ID:            img.ID,
			URL:           img.URL,
			Category:      current,
			IDField:       fieldName(i, "id"),
			CategoryField: fieldName(i, "category"),
		})
	}

	return ReviewForm{
		Items:   items,
		Choices: CategoryChoices(),
		Total:   len(items),
	}
}

func fieldName(index int, field string) string {
	return fmt.Sprintf("%s-%d-%s", formPrefix, index, field)
}
