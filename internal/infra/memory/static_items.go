package memory

import (
	"context"
	"sort"

	"pathfinder-service/internal/domain"
)

// DefaultBank is the built-in question set used when no store is configured.
func DefaultBank() []domain.Item {
	return []domain.Item{
		{
			ID:     "c1",
			Type:   domain.ItemMCQ,
			Prompt: "A teammate is struggling to meet an important deadline. What would you do?",
			Options: []string{
				"Offer to help them with specific tasks",
				"Notify the team leader",
				"Wait to see if they can handle it alone",
				"Provide advice on time management strategies",
			},
			Difficulty: 3,
			Block:      domain.BlockCareer,
		},
		{
			ID:     "c2",
			Type:   domain.ItemMCQ,
			Prompt: "During a virtual meeting, someone's idea is ignored. How do you respond?",
			Options: []string{
				"Acknowledge and invite feedback",
				"Move discussion forward",
				"Support privately after",
				"Stay quiet to avoid conflict",
			},
			Difficulty: 5,
			Block:      domain.BlockCareer,
		},
		{
			ID:         "c3",
			Type:       domain.ItemAudio,
			Prompt:     "Describe how you'd balance creativity with meeting client goals.",
			Difficulty: 6,
			Block:      domain.BlockCareer,
		},
		{
			ID:     "a1",
			Type:   domain.ItemMCQ,
			Prompt: "In a forest ecosystem, if the population of foxes decreases, which conclusion follows logically?",
			Options: []string{
				"The rabbit population will likely increase",
				"The plant population will decrease",
				"The owl population will increase",
				"There will be no significant changes",
			},
			Difficulty: 4,
			Block:      domain.BlockAcademic,
		},
		{
			ID:         "a2",
			Type:       domain.ItemText,
			Prompt:     "Suggest three innovative ways to present recycling education to teenagers that would genuinely engage them.",
			Difficulty: 5,
			Block:      domain.BlockAcademic,
		},
		{
			ID:         "a3",
			Type:       domain.ItemText,
			Prompt:     "Describe your approach when facing a problem you've never encountered before. What steps do you take?",
			Difficulty: 7,
			Block:      domain.BlockAcademic,
		},
	}
}

// StaticItems serves a fixed item list.
type StaticItems struct {
	items []domain.Item
}

func NewStaticItems(items []domain.Item) *StaticItems {
	return &StaticItems{items: cloneItems(items)}
}

func (s *StaticItems) ListItems(_ context.Context, block domain.Block) ([]domain.Item, error) {
	return filterBlock(s.items, block), nil
}

// filterBlock returns block's items ordered by difficulty, then id.
func filterBlock(items []domain.Item, block domain.Block) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if item.Block == block {
			out = append(out, cloneItem(item))
		}
	}
	SortItems(out)
	return out
}

// SortItems orders by difficulty, then id, so listings are stable.
func SortItems(items []domain.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Difficulty != items[j].Difficulty {
			return items[i].Difficulty < items[j].Difficulty
		}
		return items[i].ID < items[j].ID
	})
}

func cloneItem(item domain.Item) domain.Item {
	if item.Options != nil {
		item.Options = append([]string(nil), item.Options...)
	}
	return item
}

func cloneItems(items []domain.Item) []domain.Item {
	out := make([]domain.Item, len(items))
	for i, item := range items {
		out[i] = cloneItem(item)
	}
	return out
}
