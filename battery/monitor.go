// Package battery watches pack voltage and governs throttle when it sags.
// The filter runs once per control tick; the cell count is classified once
// at startup and never revised, so a depleted pack cannot be reclassified as
// a smaller one mid-flight.
package battery

import "time"

const (
	// Exponential filter weights, new:old.
	filterNew = 1
	filterOld = 999
	filterSum = filterNew + filterOld

	// Per-cell limiter thresholds, volts.
	MinCellVolts = 3.33
	LowCellVolts = 3.50

	// Pack-level classification boundaries, volts. A pack at or above a
	// chemistry minimum is assumed to have that many cells.
	min2SVolts = 6.6
	min3SVolts = 9.9

	// Low-voltage pulse cycle: throttle is cut for MotorOffTime, then
	// passed through for MotorOnTime, repeating while the pack stays in
	// the low band.
	MotorOffTime = 250 * time.Millisecond
	MotorOnTime  = 750 * time.Millisecond
)

// Source supplies raw pack voltage samples, already converted to volts by
// the sensing divider calibration.
type Source interface {
	PackVolts() float64
}

// Monitor filters pack voltage and runs the throttle-limiting state machine.
type Monitor struct {
	src     Source
	enabled bool

	voltage float64
	cells   int

	pulsing  bool
	cut      bool
	deadline time.Time
}

// NewMonitor primes the filter by running it to convergence against the
// source, then classifies the cell count. This is the only blocking startup
// work in the system.
func NewMonitor(src Source, enabled bool) *Monitor {
	m := &Monitor{src: src, enabled: enabled}
	m.voltage = src.PackVolts()
	for i := 0; i < filterSum; i++ {
		m.step()
	}
	switch {
	case m.voltage >= min3SVolts:
		m.cells = 3
	case m.voltage >= min2SVolts:
		m.cells = 2
	default:
		m.cells = 1
	}
	return m
}

func (m *Monitor) step() {
	m.voltage = (m.voltage*filterOld + m.src.PackVolts()*filterNew) / filterSum
}

// Update runs one filter step. Called once per control tick.
func (m *Monitor) Update() {
	m.step()
}

// Volts returns the filtered pack voltage.
func (m *Monitor) Volts() float64 {
	return m.voltage
}

// Cells returns the cell count classified at startup.
func (m *Monitor) Cells() int {
	return m.cells
}

// CellVolts returns the filtered per-cell voltage.
func (m *Monitor) CellVolts() float64 {
	return m.voltage / float64(m.cells)
}

// Govern decides whether the motors must be forced to minimum this tick.
// Below MinCellVolts the cut is unconditional. In the low band the cut
// pulses: MotorOffTime cut, MotorOnTime pass, repeating, unless the pilot
// already has the throttle low. Healthy voltage (or low throttle) rearms the
// pulse cycle so the next event starts with a full cut phase.
func (m *Monitor) Govern(now time.Time, throttleLow bool) bool {
	if !m.enabled {
		return false
	}

	perCell := m.CellVolts()
	switch {
	case perCell < MinCellVolts:
		return true

	case perCell < LowCellVolts && !throttleLow:
		if !m.pulsing {
			m.pulsing = true
			m.cut = true
			m.deadline = now.Add(MotorOffTime)
		}
		if now.After(m.deadline) {
			m.cut = !m.cut
			if m.cut {
				m.deadline = now.Add(MotorOffTime)
			} else {
				m.deadline = now.Add(MotorOnTime)
			}
		}
		return m.cut
	}

	m.pulsing = false
	m.cut = false
	m.deadline = time.Time{}
	return false
}

// Warning reports whether the pack is in or below the low band. Drives the
// low-battery LED pulse.
func (m *Monitor) Warning() bool {
	return m.CellVolts() < LowCellVolts
}
