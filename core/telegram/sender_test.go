package telegram

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestDispatcherRunsJob(t *testing.T) {
	d := NewDispatcher(DispatcherOptions{Workers: 1})
	defer d.Close()

	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "test", func() error {
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job not executed")
	}
	if n := d.ErrorCount(); n != 0 {
		t.Fatalf("error count = %d, want 0", n)
	}
}

func TestDispatcherRetriesTimeoutErrors(t *testing.T) {
	d := NewDispatcher(DispatcherOptions{
		Workers:      1,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
	defer d.Close()

	var attempts atomic.Int32
	done := make(chan struct{})
	_ = d.Enqueue(context.Background(), "test", func() error {
		if attempts.Add(1) < 3 {
			return timeoutErr{}
		}
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not succeed after retries")
	}
	if n := attempts.Load(); n != 3 {
		t.Fatalf("attempts = %d, want 3", n)
	}
	if n := d.ErrorCount(); n != 0 {
		t.Fatalf("error count = %d, want 0", n)
	}
}

func TestDispatcherDoesNotRetryPermanentErrors(t *testing.T) {
	d := NewDispatcher(DispatcherOptions{
		Workers:      1,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	})

	var attempts atomic.Int32
	_ = d.Enqueue(context.Background(), "test", func() error {
		attempts.Add(1)
		return errors.New("telegram: bad request")
	})
	d.Close()

	if n := attempts.Load(); n != 1 {
		t.Fatalf("attempts = %d, want 1", n)
	}
	if n := d.ErrorCount(); n != 1 {
		t.Fatalf("error count = %d, want 1", n)
	}
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(DispatcherOptions{Workers: 1})
	d.Close()

	err := d.Enqueue(context.Background(), "test", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want %v", err, ErrQueueClosed)
	}
}

func TestSanitizeErrorMessageRedactsToken(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot12345:AAFakeTokenValue_x-y/sendMessage": timeout`)
	got := sanitizeErrorMessage(err)
	want := `Post "https://api.telegram.org/bot<redacted>/sendMessage": timeout`
	if got != want {
		t.Fatalf("sanitized = %q, want %q", got, want)
	}
}
