// Package churn implements the churn session: account provisioning, wait
// schedule generation from ring-member timing, and the sweep loop that moves
// every unlocked balance through the wallet's accounts and back to account 0.
package churn

import (
	"fmt"
	"math/rand"
	"time"
)

// Reference defaults.
const (
	DefaultChurnLower = 3
	DefaultChurnUpper = 10

	DefaultWaitLower  = 1234 * time.Second
	DefaultWaitUpper  = 2345 * time.Second
	DefaultQuickLower = 3 * time.Second
	DefaultQuickUpper = 6 * time.Second

	// Outputs unlock after 10 blocks at roughly 2 minutes per block.
	DefaultUnlockFloor = 1200 * time.Second

	DefaultPacing = 500 * time.Millisecond
)

// Settings is the immutable configuration of one churn session. It is built
// once at startup and passed by value.
type Settings struct {
	Churns     int
	ChurnLower int
	ChurnUpper int

	DryRun bool
	Quick  bool

	WaitLower  time.Duration
	WaitUpper  time.Duration
	QuickLower time.Duration
	QuickUpper time.Duration

	// AddUnlockFloor adds UnlockFloor to every wait derived from ring timing
	// so funds are spendable before the next sweep.
	AddUnlockFloor bool
	UnlockFloor    time.Duration

	// Pacing separates consecutive sweep calls within a round.
	Pacing time.Duration
}

// DefaultSettings returns the reference settings with Churns unset.
func DefaultSettings() Settings {
	return Settings{
		ChurnLower:     DefaultChurnLower,
		ChurnUpper:     DefaultChurnUpper,
		WaitLower:      DefaultWaitLower,
		WaitUpper:      DefaultWaitUpper,
		QuickLower:     DefaultQuickLower,
		QuickUpper:     DefaultQuickUpper,
		AddUnlockFloor: true,
		UnlockFloor:    DefaultUnlockFloor,
		Pacing:         DefaultPacing,
	}
}

// WaitBounds returns the [lower, upper) range for randomized waits.
func (s Settings) WaitBounds() (time.Duration, time.Duration) {
	if s.Quick {
		return s.QuickLower, s.QuickUpper
	}
	return s.WaitLower, s.WaitUpper
}

// Check validates the settings themselves, not the churn count.
func (s Settings) Check() error {
	if s.ChurnLower < 2 {
		return fmt.Errorf("churn lower bound must be at least 2, got %d", s.ChurnLower)
	}
	if s.ChurnUpper < s.ChurnLower {
		return fmt.Errorf("churn upper bound %d is below lower bound %d", s.ChurnUpper, s.ChurnLower)
	}
	if s.WaitLower < time.Second || s.WaitUpper <= s.WaitLower {
		return fmt.Errorf("wait range [%s, %s) is invalid", s.WaitLower, s.WaitUpper)
	}
	if s.QuickLower < time.Second || s.QuickUpper <= s.QuickLower {
		return fmt.Errorf("quick wait range [%s, %s) is invalid", s.QuickLower, s.QuickUpper)
	}
	if s.UnlockFloor < 0 {
		return fmt.Errorf("unlock floor must not be negative")
	}
	if s.Pacing < 0 {
		return fmt.Errorf("pacing must not be negative")
	}
	return nil
}

// CountError is returned when the requested churn count is out of bounds.
type CountError struct {
	Churns int
	Lower  int
	Upper  int
}

func (e *CountError) Error() string {
	if e.Churns < e.Lower {
		return fmt.Sprintf("can't churn less than %d times (got %d)", e.Lower, e.Churns)
	}
	return fmt.Sprintf("can't churn more than %d times (got %d)", e.Upper, e.Churns)
}

// ValidateCount rejects churn counts outside [lower, upper].
func ValidateCount(churns, lower, upper int) error {
	if churns < lower || churns > upper {
		return &CountError{Churns: churns, Lower: lower, Upper: upper}
	}
	return nil
}

// RandomChurns picks a churn count uniformly from [lower, upper].
func RandomChurns(rng *rand.Rand, lower, upper int) int {
	return lower + rng.Intn(upper-lower+1)
}
