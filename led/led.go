// Package led sequences the status LED from the active flight mode and the
// battery warning flag. The sequencer is driven from the main loop and
// writes through a pin interface so it can run on hardware or in tests.
package led

import (
	"time"

	"github.com/mik4rok/plainFlightController/mode"
)

// Pin is the single output the sequencer drives.
type Pin interface {
	High()
	Low()
}

// Pattern is a blink cadence.
type Pattern int

const (
	Off Pattern = iota
	On
	SlowFlash // 500 ms on / 500 ms off
	Flash     // 150 ms on / 150 ms off
	FastFlash // 50 ms on / 50 ms off
	Pulse     // 100 ms on / 900 ms off
)

func (p Pattern) period() (on, off time.Duration) {
	switch p {
	case SlowFlash:
		return 500 * time.Millisecond, 500 * time.Millisecond
	case Flash:
		return 150 * time.Millisecond, 150 * time.Millisecond
	case FastFlash:
		return 50 * time.Millisecond, 50 * time.Millisecond
	case Pulse:
		return 100 * time.Millisecond, 900 * time.Millisecond
	}
	return 0, 0
}

// PatternFor maps system state to a cadence. The battery warning overrides
// everything except failsafe.
func PatternFor(m mode.FlightMode, batteryWarning bool) Pattern {
	if m == mode.Failsafe {
		return FastFlash
	}
	if batteryWarning {
		return Pulse
	}
	switch m {
	case mode.Calibrating:
		return Flash
	case mode.Disarmed:
		return SlowFlash
	case mode.PassThrough, mode.Rate, mode.AutoLevel:
		return On
	}
	return Off
}

// Sequencer toggles the pin on the active pattern's cadence.
type Sequencer struct {
	pin        Pin
	pattern    Pattern
	isOn       bool
	lastToggle time.Time
}

func NewSequencer(pin Pin) *Sequencer {
	pin.Low()
	return &Sequencer{pin: pin}
}

// Set switches the active pattern; the new cadence starts immediately.
func (s *Sequencer) Set(p Pattern, now time.Time) {
	if p == s.pattern {
		return
	}
	s.pattern = p
	s.isOn = p != Off
	s.apply()
	s.lastToggle = now
}

// Update advances the cadence. Call it from the main loop.
func (s *Sequencer) Update(now time.Time) {
	switch s.pattern {
	case Off:
		if s.isOn {
			s.isOn = false
			s.apply()
		}
	case On:
		if !s.isOn {
			s.isOn = true
			s.apply()
		}
	default:
		on, off := s.pattern.period()
		wait := off
		if s.isOn {
			wait = on
		}
		if now.Sub(s.lastToggle) >= wait {
			s.isOn = !s.isOn
			s.apply()
			s.lastToggle = now
		}
	}
}

func (s *Sequencer) apply() {
	if s.isOn {
		s.pin.High()
	} else {
		s.pin.Low()
	}
}
