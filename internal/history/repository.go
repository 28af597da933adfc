package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"eco-menu/internal/menu"
)

// PlanRepository is the remote sink for adopted plans.
type PlanRepository interface {
	Save(ctx context.Context, rec PlanRecord) error
	ListRecentByUserID(ctx context.Context, userID string, limit int) ([]PlanRecord, error)
}

// Repository is the sqlite-backed implementation of PlanRepository.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository over an existing connection.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts one plan record.
func (r *Repository) Save(ctx context.Context, rec PlanRecord) error {
	planJSON, err := json.Marshal(rec.Plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	ingredientsJSON, err := json.Marshal(rec.UsedIngredients)
	if err != nil {
		return fmt.Errorf("failed to marshal used ingredients: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO meal_history (id, user_id, date, menu_json, used_ingredients, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Date, string(planJSON), string(ingredientsJSON), createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert meal history record: %w", err)
	}
	return nil
}

// ListRecentByUserID retrieves the limit most recent plan records for a user,
// newest first.
func (r *Repository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]PlanRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, menu_json, used_ingredients, created_at
		 FROM meal_history
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal history for user %s: %w", userID, err)
	}
	defer rows.Close()

	var records []PlanRecord
	for rows.Next() {
		var (
			rec             PlanRecord
			planJSON        string
			ingredientsJSON string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Date, &planJSON, &ingredientsJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal history row: %w", err)
		}

		var plan menu.MenuPlan
		if err := json.Unmarshal([]byte(planJSON), &plan); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored plan %s: %w", rec.ID, err)
		}
		rec.Plan = plan

		if err := json.Unmarshal([]byte(ingredientsJSON), &rec.UsedIngredients); err != nil {
			return nil, fmt.Errorf("failed to unmarshal used ingredients for %s: %w", rec.ID, err)
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meal history rows: %w", err)
	}

	return records, nil
}
