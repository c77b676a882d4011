package queue

import (
	"errors"
	"testing"
	"time"
)

func TestDelayExponential(t *testing.T) {
	spec := BackoffSpec{Type: BackoffExponential, DelayMS: 1000}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
	}
	for _, tc := range cases {
		if got := Delay(spec, tc.attempt); got != tc.want {
			t.Errorf("Delay(attempt=%d) = %s, want %s", tc.attempt, got, tc.want)
		}
	}
}

func TestDelayFixed(t *testing.T) {
	spec := BackoffSpec{Type: BackoffFixed, DelayMS: 3000}
	for attempt := 1; attempt <= 5; attempt++ {
		if got := Delay(spec, attempt); got != 3*time.Second {
			t.Errorf("Delay(attempt=%d) = %s, want 3s", attempt, got)
		}
	}
}

func TestDelayCapped(t *testing.T) {
	spec := BackoffSpec{Type: BackoffExponential, DelayMS: 5000}
	if got := Delay(spec, 12); got != maxBackoffDelay {
		t.Errorf("Delay(attempt=12) = %s, want cap %s", got, maxBackoffDelay)
	}
	// Shift counts beyond the guard must not overflow.
	if got := Delay(spec, 64); got != maxBackoffDelay {
		t.Errorf("Delay(attempt=64) = %s, want cap %s", got, maxBackoffDelay)
	}
}

func TestDelayDefaults(t *testing.T) {
	if got := Delay(BackoffSpec{}, 1); got != defaultBackoffDelay {
		t.Errorf("Delay(zero spec) = %s, want %s", got, defaultBackoffDelay)
	}
	// Attempt numbers below 1 clamp instead of shifting negatively.
	if got := Delay(BackoffSpec{DelayMS: 2000}, 0); got != 2*time.Second {
		t.Errorf("Delay(attempt=0) = %s, want 2s", got)
	}
}

func TestNextRequeuesWithBudgetLeft(t *testing.T) {
	spec := BackoffSpec{Type: BackoffExponential, DelayMS: 1000}
	decision := Next(2, 3, errors.New("ffmpeg: exit status 1"), spec)
	if !decision.Requeue {
		t.Fatal("expected requeue with attempts remaining")
	}
	if decision.After != 2*time.Second {
		t.Errorf("After = %s, want 2s", decision.After)
	}
}

func TestNextStopsWhenExhausted(t *testing.T) {
	decision := Next(3, 3, errors.New("ffmpeg: exit status 1"), BackoffSpec{})
	if decision.Requeue {
		t.Fatal("expected terminal failure once attempts are exhausted")
	}
}

func TestNextTerminalErrorSkipsRetries(t *testing.T) {
	decision := Next(1, 3, Terminal(errors.New("track version v1: not found")), BackoffSpec{})
	if decision.Requeue {
		t.Fatal("terminal error must not requeue even with budget left")
	}
}

func TestTerminalWrapsBothSentinels(t *testing.T) {
	cause := errors.New("row missing")
	err := Terminal(cause)
	if !errors.Is(err, ErrTerminal) {
		t.Error("expected errors.Is(err, ErrTerminal)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the original cause to stay unwrappable")
	}
}
