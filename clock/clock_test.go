package clock

import (
	"testing"
	"time"
)

func TestFakeAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	var fired []string
	fake.AfterFunc(200*time.Millisecond, func() { fired = append(fired, "b") })
	fake.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "a") })
	fake.AfterFunc(time.Second, func() { fired = append(fired, "c") })

	fake.Advance(150 * time.Millisecond)
	if len(fired) != 1 || fired[0] != "a" {
		t.Fatalf("Expected [a] after 150ms, got %v", fired)
	}

	fake.Advance(100 * time.Millisecond)
	if len(fired) != 2 || fired[1] != "b" {
		t.Fatalf("Expected [a b] after 250ms, got %v", fired)
	}

	if fake.Pending() != 1 {
		t.Errorf("Expected 1 pending timer, got %d", fake.Pending())
	}

	if got := fake.Now(); !got.Equal(start.Add(250 * time.Millisecond)) {
		t.Errorf("Expected now to be start+250ms, got %v", got)
	}
}

func TestFakeStop(t *testing.T) {
	fake := NewFake(time.Unix(0, 0))

	called := false
	timer := fake.AfterFunc(time.Millisecond, func() { called = true })

	if !timer.Stop() {
		t.Fatal("Expected Stop to report a pending timer")
	}
	if timer.Stop() {
		t.Error("Expected second Stop to return false")
	}

	fake.Advance(time.Second)
	if called {
		t.Error("Stopped timer fired")
	}
}

func TestFakeNestedScheduling(t *testing.T) {
	fake := NewFake(time.Unix(0, 0))

	count := 0
	fake.AfterFunc(10*time.Millisecond, func() {
		count++
		fake.AfterFunc(10*time.Millisecond, func() { count++ })
	})

	fake.Advance(25 * time.Millisecond)
	if count != 2 {
		t.Errorf("Expected nested timer to fire inside the window, got %d calls", count)
	}
}

func TestRealAfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real().AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
}
