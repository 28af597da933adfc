package llm

import (
	"strings"
	"testing"

	"eco-menu/internal/history"
)

func TestBuildMenuPrompt(t *testing.T) {
	t.Run("IngredientsJoined", func(t *testing.T) {
		prompt := buildMenuPrompt([]string{"トマト", "卵", "豆腐"}, nil)
		if !strings.Contains(prompt, "トマト、卵、豆腐") {
			t.Errorf("Expected joined ingredient list in prompt, got:\n%s", prompt)
		}
	})

	t.Run("EmptyHistoryMarker", func(t *testing.T) {
		prompt := buildMenuPrompt([]string{"トマト"}, nil)
		if !strings.Contains(prompt, "なし") {
			t.Errorf("Expected empty-history marker in prompt, got:\n%s", prompt)
		}
	})

	t.Run("HistoryInterpolated", func(t *testing.T) {
		recent := []history.Entry{
			{Date: "2026-08-30", MainDish: "カレー"},
			{Date: "2026-08-29", MainDish: "焼き魚"},
		}
		prompt := buildMenuPrompt([]string{"トマト"}, recent)
		if !strings.Contains(prompt, "2026-08-30: カレー") {
			t.Errorf("Expected history line '2026-08-30: カレー' in prompt, got:\n%s", prompt)
		}
		if !strings.Contains(prompt, "2026-08-29: 焼き魚") {
			t.Errorf("Expected history line '2026-08-29: 焼き魚' in prompt, got:\n%s", prompt)
		}
		if strings.Contains(prompt, "なし") {
			t.Error("Empty-history marker must not appear when history is present")
		}
	})

	t.Run("FixedShapeInstruction", func(t *testing.T) {
		prompt := buildMenuPrompt([]string{"トマト"}, nil)
		for _, want := range []string{`"days"`, `"shopping_list"`, `"main_dish"`, `"side_dish"`, `"instructions"`} {
			if !strings.Contains(prompt, want) {
				t.Errorf("Expected %s in the output-format instruction", want)
			}
		}
	})
}
