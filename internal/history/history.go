// Package history persists adopted meal plans and reads them back to bias
// future generation away from recently cooked dishes.
//
// Two sinks exist: a sqlite table that is authoritative when the caller has
// an identity, and a bounded local log that is always written as a mirror
// and serves as the fallback for anonymous callers or remote failures.
package history

import (
	"time"

	"eco-menu/internal/menu"
)

// DateFormat is the calendar-date layout used throughout the history store.
const DateFormat = "2006-01-02"

// Entry is one day's main dish from a previously adopted plan.
type Entry struct {
	Date     string `json:"date"`
	MainDish string `json:"main_dish"`
}

// PlanRecord is a row-per-plan record: one adopted plan with the
// ingredients that went into generating it.
type PlanRecord struct {
	ID              string
	UserID          string
	Date            string
	Plan            menu.MenuPlan
	UsedIngredients []string
	CreatedAt       time.Time
}

// flatten expands one plan into its per-day entries, all tagged with the
// plan's adoption date.
func flatten(date string, plan menu.MenuPlan) []Entry {
	entries := make([]Entry, 0, len(plan.Days))
	for _, day := range plan.Days {
		entries = append(entries, Entry{Date: date, MainDish: day.MainDish})
	}
	return entries
}
