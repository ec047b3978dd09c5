package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func fixedRate(rate float64) RateFunc {
	return func(ctx context.Context) (float64, error) { return rate, nil }
}

func failingRate(err error) RateFunc {
	return func(ctx context.Context) (float64, error) { return 0, err }
}

func TestAdvanceWithoutSession(t *testing.T) {
	s := NewStore(fixedRate(450), 0, nil)
	res := s.Advance(context.Background(), 1, "100")
	if res.Outcome != OutcomeNone {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeNone)
	}
}

func TestBeginThenConvert(t *testing.T) {
	s := NewStore(fixedRate(450.5), 0, nil)
	s.Begin(context.Background(), 1)

	if !s.InProgress(1) {
		t.Fatal("dialog not in progress after Begin")
	}

	res := s.Advance(context.Background(), 1, "100")
	if res.Outcome != OutcomeConverted {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeConverted)
	}
	if res.Amount != 100 || res.Rate != 450.5 || res.Converted != 45050 {
		t.Fatalf("unexpected result %+v", res)
	}
	if s.InProgress(1) {
		t.Fatal("dialog still open after conversion")
	}
}

func TestDecimalCommaAccepted(t *testing.T) {
	s := NewStore(fixedRate(2), 0, nil)
	s.Begin(context.Background(), 1)

	res := s.Advance(context.Background(), 1, "10,5")
	if res.Outcome != OutcomeConverted {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeConverted)
	}
	if res.Converted != 21 {
		t.Fatalf("converted = %v, want 21", res.Converted)
	}
}

func TestInvalidAmountKeepsDialogOpen(t *testing.T) {
	s := NewStore(fixedRate(450), 0, nil)
	s.Begin(context.Background(), 7)

	for _, input := range []string{"abc", "-5", "0", "1e999", ""} {
		res := s.Advance(context.Background(), 7, input)
		if res.Outcome != OutcomeInvalidAmount {
			t.Fatalf("input %q: outcome = %s, want %s", input, res.Outcome, OutcomeInvalidAmount)
		}
		if !s.InProgress(7) {
			t.Fatalf("input %q: dialog closed after invalid amount", input)
		}
	}

	res := s.Advance(context.Background(), 7, "3")
	if res.Outcome != OutcomeConverted {
		t.Fatalf("outcome after retry = %s, want %s", res.Outcome, OutcomeConverted)
	}
}

func TestCancelIsCaseInsensitive(t *testing.T) {
	for _, word := range []string{"Отмена", "ОТМЕНА", "отмена", "/cancel", "Cancel"} {
		s := NewStore(fixedRate(450), 0, nil)
		s.Begin(context.Background(), 1)

		res := s.Advance(context.Background(), 1, word)
		if res.Outcome != OutcomeCancelled {
			t.Fatalf("input %q: outcome = %s, want %s", word, res.Outcome, OutcomeCancelled)
		}
		if s.InProgress(1) {
			t.Fatalf("input %q: dialog still open after cancel", word)
		}
	}
}

func TestRateFailureEndsDialog(t *testing.T) {
	feedErr := errors.New("feed down")
	s := NewStore(failingRate(feedErr), 0, nil)
	s.Begin(context.Background(), 1)

	res := s.Advance(context.Background(), 1, "50")
	if res.Outcome != OutcomeRateUnavailable {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeRateUnavailable)
	}
	if !errors.Is(res.Err, feedErr) {
		t.Fatalf("err = %v, want %v", res.Err, feedErr)
	}
	if s.InProgress(1) {
		t.Fatal("dialog still open after rate failure")
	}
}

func TestBeginReplacesPendingDialog(t *testing.T) {
	s := NewStore(fixedRate(450), time.Hour, nil)
	s.Begin(context.Background(), 1)
	first := s.sessions[1].CreatedAt

	s.now = func() time.Time { return first.Add(30 * time.Minute) }
	s.Begin(context.Background(), 1)

	if got := s.sessions[1].CreatedAt; !got.After(first) {
		t.Fatalf("CreatedAt not refreshed: %v vs %v", got, first)
	}
	if !s.InProgress(1) {
		t.Fatal("dialog not in progress after re-Begin")
	}
}

func TestSessionExpiresLazily(t *testing.T) {
	s := NewStore(fixedRate(450), 10*time.Minute, nil)
	base := time.Now()
	s.now = func() time.Time { return base }
	s.Begin(context.Background(), 1)

	s.now = func() time.Time { return base.Add(9 * time.Minute) }
	if !s.InProgress(1) {
		t.Fatal("dialog expired before max age")
	}

	s.now = func() time.Time { return base.Add(11 * time.Minute) }
	if s.InProgress(1) {
		t.Fatal("dialog still live past max age")
	}

	res := s.Advance(context.Background(), 1, "100")
	if res.Outcome != OutcomeNone {
		t.Fatalf("outcome on expired dialog = %s, want %s", res.Outcome, OutcomeNone)
	}
}

func TestCurrentReportsLiveSession(t *testing.T) {
	s := NewStore(fixedRate(450), 0, nil)

	if _, ok := s.Current(1); ok {
		t.Fatal("Current reported a session before Begin")
	}

	s.Begin(context.Background(), 1)
	sess, ok := s.Current(1)
	if !ok {
		t.Fatal("Current missed the live session")
	}
	if sess.UserID != 1 || sess.Step != StepAwaitingAmount {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestEndIsIdempotent(t *testing.T) {
	s := NewStore(fixedRate(450), 0, nil)
	s.Begin(context.Background(), 1)
	s.End(1)
	s.End(1)
	if s.InProgress(1) {
		t.Fatal("dialog still open after End")
	}
}

func TestDialogsAreIndependentPerUser(t *testing.T) {
	s := NewStore(fixedRate(450), 0, nil)
	s.Begin(context.Background(), 1)
	s.Begin(context.Background(), 2)

	if res := s.Advance(context.Background(), 1, "отмена"); res.Outcome != OutcomeCancelled {
		t.Fatalf("user 1 outcome = %s, want %s", res.Outcome, OutcomeCancelled)
	}
	if !s.InProgress(2) {
		t.Fatal("user 2 dialog affected by user 1 cancel")
	}
}

func TestLockMapShrinksWhenIdle(t *testing.T) {
	s := NewStore(fixedRate(450), 0, nil)

	for userID := int64(1); userID <= 10; userID++ {
		s.Begin(context.Background(), userID)
		if res := s.Advance(context.Background(), userID, "100"); res.Outcome != OutcomeConverted {
			t.Fatalf("user %d: outcome = %s, want %s", userID, res.Outcome, OutcomeConverted)
		}
	}

	s.mu.Lock()
	n := len(s.locks)
	s.mu.Unlock()
	if n != 0 {
		t.Fatalf("%d lock entries left after all dialogs finished, want 0", n)
	}
}

func TestAdvanceSerializesPerUser(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	rate := func(ctx context.Context) (float64, error) {
		calls++
		close(started)
		<-release
		return 450, nil
	}

	s := NewStore(rate, 0, nil)
	s.Begin(context.Background(), 1)

	var wg sync.WaitGroup
	wg.Add(1)
	var first Result
	go func() {
		defer wg.Done()
		first = s.Advance(context.Background(), 1, "100")
	}()

	<-started
	done := make(chan Result, 1)
	go func() {
		done <- s.Advance(context.Background(), 1, "200")
	}()

	select {
	case <-done:
		t.Fatal("second Advance finished while first held the dialog lock")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	wg.Wait()
	second := <-done

	if first.Outcome != OutcomeConverted {
		t.Fatalf("first outcome = %s, want %s", first.Outcome, OutcomeConverted)
	}
	if second.Outcome != OutcomeNone {
		t.Fatalf("second outcome = %s, want %s", second.Outcome, OutcomeNone)
	}
	if calls != 1 {
		t.Fatalf("rate called %d times, want 1", calls)
	}
}
