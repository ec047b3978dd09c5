// Package conversation implements the one-shot USDT to KZT conversion dialog.
package conversation

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/tengebot/core/logger"
	"github.com/m3rciful/tengebot/core/metrics"
)

// Step identifies the dialog position.
type Step int

const (
	// StepAwaitingAmount means the user was prompted and the next text
	// message is consumed as the amount.
	StepAwaitingAmount Step = iota + 1
)

// Outcome classifies what a single Advance call did with the input.
type Outcome string

const (
	// OutcomeNone means the user has no pending dialog.
	OutcomeNone Outcome = "none"
	// OutcomeConverted means the amount was parsed and the rate resolved.
	OutcomeConverted Outcome = "converted"
	// OutcomeCancelled means the user cancelled the dialog.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeInvalidAmount means the input did not parse as a positive
	// number. The dialog stays open awaiting another attempt.
	OutcomeInvalidAmount Outcome = "invalid_amount"
	// OutcomeRateUnavailable means the rate lookup failed. The dialog ends.
	OutcomeRateUnavailable Outcome = "rate_unavailable"
)

// Result carries the outcome of one Advance call. Amount, Rate and Converted
// are meaningful only when Outcome is OutcomeConverted.
type Result struct {
	Outcome   Outcome
	Amount    float64
	Rate      float64
	Converted float64
	// Err is set when Outcome is OutcomeRateUnavailable.
	Err error
}

// RateFunc resolves the current USDT/KZT rate. The store calls it while
// holding the user's dialog lock, so a second message from the same user
// during the lookup waits instead of racing.
type RateFunc func(ctx context.Context) (float64, error)

// Session is one user's pending dialog.
type Session struct {
	UserID    int64
	Step      Step
	CreatedAt time.Time
}

// cancelWords end a pending dialog when received as the amount, compared
// case-insensitively.
var cancelWords = map[string]struct{}{
	"отмена":  {},
	"/cancel": {},
	"cancel":  {},
}

// dialogLock serializes one user's dialog turns. refs counts holders and
// waiters so the map entry can be dropped once the last one releases it.
type dialogLock struct {
	mu   sync.Mutex
	refs int
}

// Store keeps at most one pending dialog per user, entirely in memory.
// Sessions do not survive a restart.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*dialogLock

	maxAge  time.Duration
	rate    RateFunc
	now     func() time.Time
	metrics *metrics.BotMetrics
}

// NewStore builds a dialog store. maxAge <= 0 disables expiry; metrics may be nil.
func NewStore(rate RateFunc, maxAge time.Duration, m *metrics.BotMetrics) *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*dialogLock),
		maxAge:   maxAge,
		rate:     rate,
		now:      time.Now,
		metrics:  m,
	}
}

// acquire takes the user's dialog lock, creating the entry on first use.
// The ref count is bumped before blocking so a concurrent release cannot
// drop an entry that still has waiters.
func (s *Store) acquire(userID int64) *dialogLock {
	s.mu.Lock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &dialogLock{}
		s.locks[userID] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return lock
}

// release unlocks and removes the map entry when nobody else holds or waits
// on it, keeping the lock map proportional to in-flight dialogs.
func (s *Store) release(userID int64, lock *dialogLock) {
	lock.mu.Unlock()

	s.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.locks, userID)
	}
	s.mu.Unlock()
}

// Begin opens a dialog for the user. An existing pending dialog is replaced:
// the latest conversion request always wins.
func (s *Store) Begin(ctx context.Context, userID int64) {
	lock := s.acquire(userID)
	defer s.release(userID, lock)

	s.mu.Lock()
	_, replaced := s.sessions[userID]
	s.sessions[userID] = &Session{
		UserID:    userID,
		Step:      StepAwaitingAmount,
		CreatedAt: s.now(),
	}
	s.mu.Unlock()

	logger.Debug(ctx, "conv", "dialog.begin",
		slog.Int64("user_id", userID),
		slog.Bool("replaced", replaced),
	)
}

// InProgress reports whether the user has a live dialog. An expired session
// is removed here, so a stale prompt silently falls through to normal routing.
func (s *Store) InProgress(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLocked(userID) != nil
}

// liveLocked returns the user's session if present and fresh, dropping it
// when expired. Caller must hold s.mu.
func (s *Store) liveLocked(userID int64) *Session {
	sess, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	if s.maxAge > 0 && s.now().Sub(sess.CreatedAt) > s.maxAge {
		delete(s.sessions, userID)
		return nil
	}
	return sess
}

// Current returns a copy of the user's live session, if any.
func (s *Store) Current(userID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.liveLocked(userID)
	if sess == nil {
		return Session{}, false
	}
	return *sess, true
}

// End closes the user's dialog if one exists. Safe to call at any time.
func (s *Store) End(userID int64) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Advance feeds one text message into the user's dialog.
//
// Cancel words end the dialog. A value that does not parse as a positive
// number keeps the dialog open and reports OutcomeInvalidAmount. A valid
// amount triggers a rate lookup; the dialog ends regardless of whether the
// lookup succeeds, so a feed outage never strands the user mid-dialog.
func (s *Store) Advance(ctx context.Context, userID int64, text string) Result {
	lock := s.acquire(userID)
	defer s.release(userID, lock)

	s.mu.Lock()
	sess := s.liveLocked(userID)
	s.mu.Unlock()
	if sess == nil {
		return Result{Outcome: OutcomeNone}
	}

	if _, ok := cancelWords[strings.ToLower(strings.TrimSpace(text))]; ok {
		s.End(userID)
		s.record(ctx, userID, Result{Outcome: OutcomeCancelled})
		return Result{Outcome: OutcomeCancelled}
	}

	amount, ok := parseAmount(text)
	if !ok {
		res := Result{Outcome: OutcomeInvalidAmount}
		s.record(ctx, userID, res)
		return res
	}

	rate, err := s.rate(ctx)
	s.End(userID)
	if err != nil {
		res := Result{Outcome: OutcomeRateUnavailable, Amount: amount, Err: err}
		s.record(ctx, userID, res)
		return res
	}

	res := Result{
		Outcome:   OutcomeConverted,
		Amount:    amount,
		Rate:      rate,
		Converted: amount * rate,
	}
	s.record(ctx, userID, res)
	return res
}

func (s *Store) record(ctx context.Context, userID int64, res Result) {
	s.metrics.RecordConversationOutcome(string(res.Outcome))

	attrs := []slog.Attr{
		slog.Int64("user_id", userID),
		slog.String("outcome", string(res.Outcome)),
	}
	level := slog.LevelInfo
	switch res.Outcome {
	case OutcomeConverted:
		attrs = append(attrs,
			slog.Float64("amount", res.Amount),
			slog.Float64("rate", res.Rate),
			slog.Float64("converted", res.Converted),
		)
	case OutcomeRateUnavailable:
		level = slog.LevelWarn
		if res.Err != nil {
			attrs = append(attrs, slog.String("err", logger.SanitizeLimit(res.Err.Error(), 256)))
		}
	case OutcomeInvalidAmount:
		level = slog.LevelDebug
	}
	logger.Event(ctx, "conv", level, "dialog.advance", attrs...)
}

// parseAmount accepts a positive finite number, tolerating a decimal comma.
func parseAmount(text string) (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
