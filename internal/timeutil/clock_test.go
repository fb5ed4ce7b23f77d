package timeutil

import (
	"context"
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Sleep(t *testing.T) {
	clock := RealClock{}
	start := time.Now()
	if err := clock.Sleep(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("Sleep() returned %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Sleep() returned early")
	}
}

func TestRealClock_SleepCancelled(t *testing.T) {
	clock := RealClock{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := clock.Sleep(ctx, time.Hour); err != context.Canceled {
		t.Fatalf("Sleep() = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled Sleep() did not return promptly")
	}
}

func TestRealClock_NewTimer(t *testing.T) {
	clock := RealClock{}
	timer := clock.NewTimer(10 * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C():
	case <-time.After(time.Second):
		t.Error("timer did not fire")
	}
}

func TestMockClock_Advance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	clock.Advance(5 * time.Second)
	if got := clock.Now(); !got.Equal(start.Add(5 * time.Second)) {
		t.Errorf("Now() = %v, want %v", got, start.Add(5*time.Second))
	}
}

func TestMockClock_SleepRecordsAndAdvances(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	_ = clock.Sleep(context.Background(), time.Second)
	_ = clock.Sleep(context.Background(), 2*time.Second)

	sleeps := clock.Sleeps()
	if len(sleeps) != 2 || sleeps[0] != time.Second || sleeps[1] != 2*time.Second {
		t.Errorf("Sleeps() = %v", sleeps)
	}
	if got := clock.Now(); !got.Equal(start.Add(3 * time.Second)) {
		t.Errorf("Now() = %v, want %v", got, start.Add(3*time.Second))
	}
}

func TestMockClock_SleepCancelled(t *testing.T) {
	clock := NewMockClock(time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := clock.Sleep(ctx, time.Second); err != context.Canceled {
		t.Fatalf("Sleep() = %v, want context.Canceled", err)
	}
	if len(clock.Sleeps()) != 0 {
		t.Error("cancelled Sleep() should not be recorded")
	}
}

func TestMockTimer_FiresAtDeadline(t *testing.T) {
	clock := NewMockClock(time.Now())
	timer := clock.NewTimer(3 * time.Second)

	clock.Advance(2 * time.Second)
	select {
	case <-timer.C():
		t.Fatal("timer fired early")
	default:
	}

	clock.Advance(time.Second)
	select {
	case <-timer.C():
	default:
		t.Fatal("timer did not fire at deadline")
	}
}

func TestMockTimer_ResetMovesDeadline(t *testing.T) {
	clock := NewMockClock(time.Now())
	timer := clock.NewTimer(3 * time.Second)

	clock.Advance(2 * time.Second)
	timer.Reset(3 * time.Second)
	clock.Advance(2 * time.Second)

	select {
	case <-timer.C():
		t.Fatal("timer fired before the reset deadline")
	default:
	}

	clock.Advance(time.Second)
	select {
	case <-timer.C():
	default:
		t.Fatal("timer did not fire at the reset deadline")
	}
}

func TestMockTimer_ResetDropsPendingTick(t *testing.T) {
	clock := NewMockClock(time.Now())
	timer := clock.NewTimer(time.Second)

	clock.Advance(time.Second)
	timer.Reset(time.Second)

	select {
	case <-timer.C():
		t.Fatal("stale tick delivered after Reset")
	default:
	}
}

func TestMockTimer_Stop(t *testing.T) {
	clock := NewMockClock(time.Now())
	timer := clock.NewTimer(time.Second)

	if !timer.Stop() {
		t.Error("Stop() on an active timer should return true")
	}
	clock.Advance(2 * time.Second)

	select {
	case <-timer.C():
		t.Fatal("stopped timer fired")
	default:
	}
	if timer.Stop() {
		t.Error("second Stop() should return false")
	}
}
