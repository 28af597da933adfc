// Package session drives the upload → ingredients → menu wizard. It owns
// the transient per-session state and sequences the recognition and
// generation calls; adopted plans are handed off to the history store.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eco-menu/internal/history"
	"eco-menu/internal/llm"
	"eco-menu/internal/logger"
	"eco-menu/internal/media"
	"eco-menu/internal/menu"
	"eco-menu/internal/metrics"
)

// Step is the wizard position.
type Step string

const (
	StepUpload      Step = "upload"
	StepIngredients Step = "ingredients"
	StepMenu        Step = "menu"
)

// historyLimit is how many recent plan records are consulted per generation.
const historyLimit = 3

// Session errors. Apart from ErrNotFound and ErrBusy these are input
// problems the user corrects; nothing is retried automatically.
var (
	ErrNotFound            = errors.New("session not found")
	ErrBusy                = errors.New("a request is already in progress for this session")
	ErrNoImage             = errors.New("no image has been uploaded")
	ErrNoIngredients       = errors.New("at least one ingredient is required")
	ErrNoPlan              = errors.New("no menu plan has been generated")
	ErrEmptyIngredient     = errors.New("ingredient name must not be empty")
	ErrDuplicateIngredient = errors.New("ingredient is already in the list")
	ErrBadIngredientIndex  = errors.New("ingredient index out of range")
)

// Session is one wizard run. All fields are snapshots; mutation goes
// through the Orchestrator.
type Session struct {
	ID          string         `json:"id"`
	Step        Step           `json:"step"`
	HasImage    bool           `json:"has_image"`
	Ingredients []string       `json:"ingredients"`
	Plan        *menu.MenuPlan `json:"plan,omitempty"`
	LastError   string         `json:"last_error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
}

type sessionState struct {
	Session
	image media.EncodedImage
	busy  bool
}

// Orchestrator sequences the pipeline for all live sessions. Sessions are
// kept in memory only: resetting or expiring one discards its state, while
// adopted plans outlive it in the history store.
type Orchestrator struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState

	provider llm.Provider
	decoder  *menu.Decoder
	history  *history.Store
	metrics  *metrics.Store
	ttl      time.Duration
}

// NewOrchestrator creates an Orchestrator bound to one provider. The
// decoder's prefill handling follows the provider's capability.
func NewOrchestrator(provider llm.Provider, hist *history.Store, metricsStore *metrics.Store, ttl time.Duration) *Orchestrator {
	return &Orchestrator{
		sessions: make(map[string]*sessionState),
		provider: provider,
		decoder:  menu.NewDecoder(provider.SeedsResponseWithOpeningBrace()),
		history:  hist,
		metrics:  metricsStore,
		ttl:      ttl,
	}
}

// Create starts a new session at the upload step.
func (o *Orchestrator) Create() Session {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now()
	state := &sessionState{
		Session: Session{
			ID:        uuid.NewString(),
			Step:      StepUpload,
			CreatedAt: now,
			ExpiresAt: now.Add(o.ttl),
		},
	}
	o.sessions[state.ID] = state
	return state.snapshot()
}

// Get returns a snapshot of the session.
func (o *Orchestrator) Get(id string) (Session, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	state, err := o.lookup(id)
	if err != nil {
		return Session{}, err
	}
	return state.snapshot(), nil
}

// SetImage validates and stores the uploaded image. Validation failures
// happen here, before any network call.
func (o *Orchestrator) SetImage(id, dataURL string) (Session, error) {
	img, err := media.ParseDataURL(dataURL)
	if err != nil {
		return Session{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	state, lookupErr := o.lookup(id)
	if lookupErr != nil {
		return Session{}, lookupErr
	}
	if state.busy {
		return Session{}, ErrBusy
	}

	state.image = img
	state.HasImage = true
	state.LastError = ""
	return state.snapshot(), nil
}

// Analyze runs ingredient recognition on the stored image and advances the
// session to the ingredients step. At most one recognition or generation
// request may be in flight per session.
func (o *Orchestrator) Analyze(ctx context.Context, id string) (Session, error) {
	img, err := o.begin(id, func(s *sessionState) error {
		if !s.HasImage {
			return ErrNoImage
		}
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	defer o.end(id)

	start := time.Now()
	comp, err := o.provider.RecognizeIngredients(ctx, img)
	if err != nil {
		return o.fail(id, err)
	}
	o.recordUsage(ctx, metrics.OpRecognize, comp.Usage, time.Since(start))

	ingredients, err := o.decoder.DecodeIngredients(comp.Text)
	if err != nil {
		return o.fail(id, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	state, lookupErr := o.lookup(id)
	if lookupErr != nil {
		return Session{}, lookupErr
	}
	state.Ingredients = ingredients
	state.Step = StepIngredients
	state.LastError = ""
	return state.snapshot(), nil
}

// AddIngredient appends a manually entered ingredient. Adding from the
// upload step skips straight to the ingredients step (manual entry without
// a photo). Duplicates by exact string match are rejected; this is the
// only place deduplication applies.
func (o *Orchestrator) AddIngredient(id, name string) (Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Session{}, ErrEmptyIngredient
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	state, err := o.lookup(id)
	if err != nil {
		return Session{}, err
	}
	for _, existing := range state.Ingredients {
		if existing == name {
			return Session{}, ErrDuplicateIngredient
		}
	}

	state.Ingredients = append(state.Ingredients, name)
	if state.Step == StepUpload {
		state.Step = StepIngredients
	}
	return state.snapshot(), nil
}

// RemoveIngredient deletes the ingredient at the given position.
func (o *Orchestrator) RemoveIngredient(id string, index int) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	state, err := o.lookup(id)
	if err != nil {
		return Session{}, err
	}
	if index < 0 || index >= len(state.Ingredients) {
		return Session{}, ErrBadIngredientIndex
	}

	state.Ingredients = append(state.Ingredients[:index], state.Ingredients[index+1:]...)
	return state.snapshot(), nil
}

// Generate produces a three-day plan from the session's ingredients,
// biased away from the identity's recent history, and advances the session
// to the menu step.
func (o *Orchestrator) Generate(ctx context.Context, id, userID string) (Session, error) {
	var ingredients []string
	_, err := o.begin(id, func(s *sessionState) error {
		if len(s.Ingredients) == 0 {
			return ErrNoIngredients
		}
		ingredients = append([]string(nil), s.Ingredients...)
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	defer o.end(id)

	recent := o.history.FetchRecent(ctx, userID, historyLimit)

	start := time.Now()
	comp, err := o.provider.GenerateMenu(ctx, ingredients, recent)
	if err != nil {
		return o.fail(id, err)
	}
	o.recordUsage(ctx, metrics.OpGenerateMenu, comp.Usage, time.Since(start))

	plan, err := o.decoder.DecodeMenuPlan(comp.Text)
	if err != nil {
		return o.fail(id, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	state, lookupErr := o.lookup(id)
	if lookupErr != nil {
		return Session{}, lookupErr
	}
	state.Plan = plan
	state.Step = StepMenu
	state.LastError = ""
	return state.snapshot(), nil
}

// Adopt saves the generated plan to the history store. The returned bool
// is the store's degraded-success indicator: false means the plan reached
// the local log only.
func (o *Orchestrator) Adopt(ctx context.Context, id, userID string) (Session, bool, error) {
	o.mu.Lock()
	state, err := o.lookup(id)
	if err != nil {
		o.mu.Unlock()
		return Session{}, false, err
	}
	if state.Plan == nil {
		o.mu.Unlock()
		return Session{}, false, ErrNoPlan
	}
	plan := *state.Plan
	used := append([]string(nil), state.Ingredients...)
	o.mu.Unlock()

	saved := o.history.Save(ctx, userID, plan, used)

	o.mu.Lock()
	defer o.mu.Unlock()
	state, err = o.lookup(id)
	if err != nil {
		return Session{}, saved, err
	}
	return state.snapshot(), saved, nil
}

// Reset returns the session to a fresh upload step, discarding all
// transient state.
func (o *Orchestrator) Reset(id string) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	state, err := o.lookup(id)
	if err != nil {
		return Session{}, err
	}
	if state.busy {
		return Session{}, ErrBusy
	}

	state.Step = StepUpload
	state.image = media.EncodedImage{}
	state.HasImage = false
	state.Ingredients = nil
	state.Plan = nil
	state.LastError = ""
	return state.snapshot(), nil
}

// CleanupExpired drops expired sessions and returns how many were removed.
func (o *Orchestrator) CleanupExpired() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, state := range o.sessions {
		if now.After(state.ExpiresAt) && !state.busy {
			delete(o.sessions, id)
			removed++
		}
	}
	return removed
}

// StartCleanup runs CleanupExpired on an interval until ctx is done.
func (o *Orchestrator) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := o.CleanupExpired(); n > 0 {
					logger.L().Debug("removed expired sessions", zap.Int("count", n))
				}
			}
		}
	}()
}

// lookup must be called with the mutex held.
func (o *Orchestrator) lookup(id string) (*sessionState, error) {
	state, ok := o.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(state.ExpiresAt) {
		return nil, ErrNotFound
	}
	return state, nil
}

// begin marks the session busy after running the precondition check. The
// caller must end(id) once its request completes.
func (o *Orchestrator) begin(id string, check func(*sessionState) error) (media.EncodedImage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	state, err := o.lookup(id)
	if err != nil {
		return media.EncodedImage{}, err
	}
	if state.busy {
		return media.EncodedImage{}, ErrBusy
	}
	if err := check(state); err != nil {
		return media.EncodedImage{}, err
	}

	state.busy = true
	return state.image, nil
}

func (o *Orchestrator) end(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if state, ok := o.sessions[id]; ok {
		state.busy = false
	}
}

// fail records the error message on the session and passes the error
// through. The session stays interactive.
func (o *Orchestrator) fail(id string, err error) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if state, ok := o.sessions[id]; ok {
		state.LastError = err.Error()
	}
	return Session{}, err
}

func (o *Orchestrator) recordUsage(ctx context.Context, operation string, usage llm.TokenUsage, latency time.Duration) {
	if o.metrics == nil {
		return
	}
	if err := o.metrics.RecordUsage(ctx, operation, o.provider.Name(), usage, latency); err != nil {
		logger.L().Warn("failed to record usage metric",
			zap.String("operation", operation), zap.Error(err))
	}
}

func (s *sessionState) snapshot() Session {
	snap := s.Session
	snap.Ingredients = append([]string(nil), s.Ingredients...)
	if s.Plan != nil {
		plan := *s.Plan
		snap.Plan = &plan
	}
	return snap
}
