package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eco-menu/internal/logger"
	"eco-menu/internal/menu"
)

// daysPerRecord is how many day-entries one stored plan expands into.
const daysPerRecord = menu.PlanDays

// Store coordinates the two history sinks. The remote repository is
// authoritative when an identity is present; the local log is always
// written as a mirror and serves as the read fallback.
//
// Storage failures never surface to callers as hard errors: reads degrade
// to the local log and writes report degraded success through Save's
// return value.
type Store struct {
	repo  PlanRepository
	local *LocalLog
	now   func() time.Time
}

// NewStore creates a Store over the two sinks.
func NewStore(repo PlanRepository, local *LocalLog) *Store {
	return &Store{repo: repo, local: local, now: time.Now}
}

// FetchRecent returns the day-entries of the limit most recent plans for
// the given identity, newest plan first. limit counts plan records, not
// flattened entries: each record contributes up to three day-entries, so
// the result holds at most limit*3 entries.
//
// An empty userID or a remote read failure falls back to the local log.
func (s *Store) FetchRecent(ctx context.Context, userID string, limit int) []Entry {
	if userID == "" {
		return s.localRecent(limit)
	}

	records, err := s.repo.ListRecentByUserID(ctx, userID, limit)
	if err != nil {
		logger.L().Warn("remote history read failed, falling back to local log",
			zap.String("user_id", userID), zap.Error(err))
		return s.localRecent(limit)
	}

	var entries []Entry
	for _, rec := range records {
		entries = append(entries, flatten(rec.Date, rec.Plan)...)
	}
	if len(entries) > limit*daysPerRecord {
		entries = entries[:limit*daysPerRecord]
	}
	return entries
}

func (s *Store) localRecent(limit int) []Entry {
	locals, err := s.local.Recent(limit)
	if err != nil {
		logger.L().Warn("local history read failed", zap.Error(err))
		return nil
	}

	var entries []Entry
	for _, e := range locals {
		entries = append(entries, flatten(e.Date, e.Plan)...)
	}
	return entries
}

// Save persists an adopted plan. The remote table is written only when an
// identity is present; the local log is written in every case, so a later
// anonymous or offline FetchRecent still sees the plan.
//
// Returns true when the plan reached its authoritative sink: the remote
// table for an identified caller, the local log otherwise. False means
// "saved locally only" and is not a total failure.
func (s *Store) Save(ctx context.Context, userID string, plan menu.MenuPlan, usedIngredients []string) bool {
	today := s.now().Format(DateFormat)

	remoteOK := true
	if userID != "" {
		rec := PlanRecord{
			ID:              uuid.NewString(),
			UserID:          userID,
			Date:            today,
			Plan:            plan,
			UsedIngredients: usedIngredients,
			CreatedAt:       s.now().UTC(),
		}
		if err := s.repo.Save(ctx, rec); err != nil {
			logger.L().Warn("remote history write failed, plan kept in local log only",
				zap.String("user_id", userID), zap.Error(err))
			remoteOK = false
		}
	}

	entry := LocalEntry{
		Date:            today,
		Plan:            plan,
		UsedIngredients: usedIngredients,
		SavedAt:         s.now(),
	}
	if err := s.local.Append(entry); err != nil {
		logger.L().Warn("local history write failed", zap.Error(err))
	}

	return remoteOK
}
