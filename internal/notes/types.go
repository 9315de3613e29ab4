// Package notes classifies a study note, picks an extraction strategy and
// turns the note into verified concepts.
package notes

import (
	"context"
	"strings"
)

// Category is the kind of content a note holds.
type Category string

const (
	CategoryTheory  Category = "theory"
	CategoryCode    Category = "code"
	CategoryMath    Category = "math"
	CategoryList    Category = "list"
	CategoryShort   Category = "short"
	CategoryGarbage Category = "garbage"
)

// Categories lists every category in prompt order.
var Categories = []Category{
	CategoryTheory, CategoryCode, CategoryMath, CategoryList, CategoryShort, CategoryGarbage,
}

// ParseCategory maps a model reply onto a Category. Unknown values map to
// theory.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c
		}
	}
	return CategoryTheory
}

// Strategy selects how concepts are extracted.
type Strategy string

const (
	StrategyStandard     Strategy = "standard"
	StrategyCodePractice Strategy = "code_practice"
	StrategyDirectQuiz   Strategy = "direct_quiz"
)

// StrategyFor picks the extraction strategy for a category.
func StrategyFor(c Category) Strategy {
	switch c {
	case CategoryCode:
		return StrategyCodePractice
	case CategoryShort, CategoryGarbage:
		return StrategyDirectQuiz
	default:
		return StrategyStandard
	}
}

// JSONGenerator is the part of llm.Client used for free-form JSON replies.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, attempts int) (any, error)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
