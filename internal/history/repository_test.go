package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"eco-menu/internal/database"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	repo := NewRepository(db.SQL)

	t.Run("EmptyList", func(t *testing.T) {
		records, err := repo.ListRecentByUserID(ctx, "user-1", 3)
		if err != nil {
			t.Fatalf("ListRecentByUserID failed: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("Expected no records, got %d", len(records))
		}
	})

	t.Run("SaveAndList", func(t *testing.T) {
		base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
		dishes := [][3]string{
			{"カレー", "焼き魚", "炒飯"},
			{"肉じゃが", "うどん", "餃子"},
			{"オムライス", "焼きそば", "鍋"},
		}
		for i, d := range dishes {
			rec := PlanRecord{
				ID:              uuid.NewString(),
				UserID:          "user-1",
				Date:            base.AddDate(0, 0, i).Format(DateFormat),
				Plan:            testPlan(d[0], d[1], d[2]),
				UsedIngredients: []string{"じゃがいも", "人参"},
				CreatedAt:       base.AddDate(0, 0, i),
			}
			if err := repo.Save(ctx, rec); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
		}

		records, err := repo.ListRecentByUserID(ctx, "user-1", 2)
		if err != nil {
			t.Fatalf("ListRecentByUserID failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("Expected 2 records, got %d", len(records))
		}
		if records[0].Plan.Days[0].MainDish != "オムライス" {
			t.Errorf("Expected newest record first, got %q", records[0].Plan.Days[0].MainDish)
		}
		if records[0].Date != "2026-08-30" {
			t.Errorf("Expected date 2026-08-30, got %s", records[0].Date)
		}
		if len(records[0].UsedIngredients) != 2 {
			t.Errorf("Expected 2 used ingredients, got %d", len(records[0].UsedIngredients))
		}
	})

	t.Run("ScopedByUser", func(t *testing.T) {
		records, err := repo.ListRecentByUserID(ctx, "user-2", 5)
		if err != nil {
			t.Fatalf("ListRecentByUserID failed: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("Expected no records for another user, got %d", len(records))
		}
	})
}
