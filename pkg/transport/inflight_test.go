package transport

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestInFlightRegistryRegisterAndCancel(t *testing.T) {
	r := NewInFlightRegistry()

	cancelled := false
	r.Register("req_abc123", func() { cancelled = true })

	ok := r.Cancel("req_abc123")
	if !ok {
		t.Error("Cancel should return true for registered ID")
	}
	if !cancelled {
		t.Error("cancel function should have been called")
	}

	// Second cancel should return false (already removed).
	ok = r.Cancel("req_abc123")
	if ok {
		t.Error("Cancel should return false after already cancelled")
	}
}

func TestInFlightRegistryCancelUnknown(t *testing.T) {
	r := NewInFlightRegistry()

	ok := r.Cancel("req_nonexistent")
	if ok {
		t.Error("Cancel should return false for unknown ID")
	}
}

func TestInFlightRegistryRemove(t *testing.T) {
	r := NewInFlightRegistry()

	cancelled := false
	r.Register("req_abc123", func() { cancelled = true })

	r.Remove("req_abc123")

	ok := r.Cancel("req_abc123")
	if ok {
		t.Error("Cancel should return false after Remove")
	}
	if cancelled {
		t.Error("cancel function should not have been called by Remove")
	}
}

func TestInFlightRegistryRemoveUnknown(t *testing.T) {
	r := NewInFlightRegistry()
	// Should not panic.
	r.Remove("req_nonexistent")
}

func TestInFlightRegistryConcurrentAccess(t *testing.T) {
	r := NewInFlightRegistry()
	var cancelCount atomic.Int64
	const numEntries = 100

	// Register entries concurrently.
	var wg sync.WaitGroup
	for i := 0; i < numEntries; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			r.Register(id, func() { cancelCount.Add(1) })
		}(idForIndex(i))
	}
	wg.Wait()

	// Cancel half concurrently.
	for i := 0; i < numEntries/2; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			r.Cancel(id)
		}(idForIndex(i))
	}
	wg.Wait()

	if cancelCount.Load() != numEntries/2 {
		t.Errorf("expected %d cancellations, got %d", numEntries/2, cancelCount.Load())
	}

	// Remove the other half concurrently.
	for i := numEntries / 2; i < numEntries; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			r.Remove(id)
		}(idForIndex(i))
	}
	wg.Wait()
}

func idForIndex(i int) string {
	return "req_" + string(rune('A'+i%26)) + string(rune('0'+i/26))
}

func TestInFlightRegistryShutdownCancelsAll(t *testing.T) {
	r := NewInFlightRegistry()
	var cancelCount atomic.Int64
	for i := 0; i < 5; i++ {
		r.Register(idForIndex(i), func() { cancelCount.Add(1) })
	}
	if r.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", r.Len())
	}

	// Streams remove themselves once their cancellation is observed.
	go func() {
		for cancelCount.Load() < 5 {
			time.Sleep(time.Millisecond)
		}
		for i := 0; i < 5; i++ {
			r.Remove(idForIndex(i))
		}
	}()

	n, err := r.Shutdown(context.Background())
	if err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if n != 5 {
		t.Errorf("Shutdown() = %d, want 5", n)
	}
	if cancelCount.Load() != 5 {
		t.Errorf("expected 5 cancellations, got %d", cancelCount.Load())
	}
	if r.Len() != 0 {
		t.Errorf("Len() after Shutdown = %d, want 0", r.Len())
	}
	if n, err := r.Shutdown(context.Background()); n != 0 || err != nil {
		t.Errorf("second Shutdown() = %d, %v, want 0, nil", n, err)
	}
}

func TestInFlightRegistryShutdownWaitsForRemove(t *testing.T) {
	r := NewInFlightRegistry()
	r.Register("req_slow", func() {})

	removed := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		r.Remove("req_slow")
		close(removed)
	}()

	if _, err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	select {
	case <-removed:
	default:
		t.Error("Shutdown returned before the stream was removed")
	}
}

func TestInFlightRegistryShutdownTimeout(t *testing.T) {
	r := NewInFlightRegistry()
	r.Register("req_stuck", func() {})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := r.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() error = %v, want DeadlineExceeded", err)
	}
}

func TestInFlightRegistryRejectsAfterShutdown(t *testing.T) {
	r := NewInFlightRegistry()
	if _, err := r.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	cancelled := false
	if r.Register("req_late", func() { cancelled = true }) {
		t.Error("Register after Shutdown should return false")
	}
	if cancelled {
		t.Error("rejected registration must not be cancelled by the registry")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}
