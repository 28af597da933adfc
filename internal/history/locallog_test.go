package history

import (
	"fmt"
	"testing"
	"time"

	"eco-menu/internal/menu"
)

func testPlan(mainDishes ...string) menu.MenuPlan {
	plan := menu.MenuPlan{ShoppingList: []string{"味噌"}}
	for i, dish := range mainDishes {
		plan.Days = append(plan.Days, menu.DayMenu{
			Day:          i + 1,
			MainDish:     dish,
			SideDish:     "サラダ",
			Instructions: "作る",
		})
	}
	return plan
}

func TestLocalLog(t *testing.T) {
	log, err := NewLocalLog(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create local log: %v", err)
	}

	t.Run("EmptyRecent", func(t *testing.T) {
		entries, err := log.Recent(3)
		if err != nil {
			t.Fatalf("Recent failed on empty log: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("Expected no entries, got %d", len(entries))
		}
	})

	t.Run("AppendAndRecent", func(t *testing.T) {
		first := LocalEntry{
			Date:            "2026-08-30",
			Plan:            testPlan("カレー", "焼き魚", "炒飯"),
			UsedIngredients: []string{"じゃがいも"},
			SavedAt:         time.Now(),
		}
		second := LocalEntry{
			Date:            "2026-08-31",
			Plan:            testPlan("肉じゃが", "うどん", "餃子"),
			UsedIngredients: []string{"玉ねぎ"},
			SavedAt:         time.Now(),
		}
		if err := log.Append(first); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := log.Append(second); err != nil {
			t.Fatalf("Append failed: %v", err)
		}

		entries, err := log.Recent(3)
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("Expected 2 entries, got %d", len(entries))
		}
		if entries[0].Date != "2026-08-31" {
			t.Errorf("Expected most recent entry first, got date %s", entries[0].Date)
		}
	})

	t.Run("RecentHonorsLimit", func(t *testing.T) {
		entries, err := log.Recent(1)
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("Expected 1 entry, got %d", len(entries))
		}
		if entries[0].Date != "2026-08-31" {
			t.Errorf("Expected the newest entry, got date %s", entries[0].Date)
		}
	})
}

func TestLocalLogEviction(t *testing.T) {
	log, err := NewLocalLog(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create local log: %v", err)
	}

	// Append more than the cap; oldest entries must be evicted.
	for i := 0; i < maxLocalEntries+3; i++ {
		entry := LocalEntry{
			Date:    fmt.Sprintf("2026-08-%02d", i+1),
			Plan:    testPlan("料理A", "料理B", "料理C"),
			SavedAt: time.Now(),
		}
		if err := log.Append(entry); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	entries, err := log.Recent(maxLocalEntries + 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != maxLocalEntries {
		t.Fatalf("Expected log capped at %d entries, got %d", maxLocalEntries, len(entries))
	}
	// The oldest surviving entry is number 4 (2026-08-04).
	if entries[len(entries)-1].Date != "2026-08-04" {
		t.Errorf("Expected oldest surviving entry 2026-08-04, got %s", entries[len(entries)-1].Date)
	}
	if entries[0].Date != "2026-08-13" {
		t.Errorf("Expected newest entry 2026-08-13, got %s", entries[0].Date)
	}
}
