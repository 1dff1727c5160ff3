package control

import "github.com/mik4rok/plainFlightController/config"

// Axis indexes the three controlled axes.
type Axis int

const (
	Roll Axis = iota
	Pitch
	Yaw
)

// AxisSet owns the six controller instances: one per axis for the rate gain
// bank and one per axis for the levelled bank. Rate mode flies the rate
// bank; auto-level and failsafe fly the levelled bank; heading hold borrows
// the levelled yaw controller.
type AxisSet struct {
	rate     [3]*PIDF
	levelled [3]*PIDF
}

// NewAxisSet builds the bank from the configured gains.
func NewAxisSet(cfg config.Config) *AxisSet {
	per := [3]config.AxisGains{cfg.Roll, cfg.Pitch, cfg.Yaw}
	s := &AxisSet{}
	for i, g := range per {
		s.rate[i] = NewPIDF(g.Rate, cfg.IntegralLimit)
		s.levelled[i] = NewPIDF(g.Levelled, cfg.IntegralLimit)
	}
	return s
}

// Rate returns the rate-bank controller for an axis.
func (s *AxisSet) Rate(a Axis) *PIDF {
	return s.rate[a]
}

// Levelled returns the levelled-bank controller for an axis.
func (s *AxisSet) Levelled(a Axis) *PIDF {
	return s.levelled[a]
}

// ResetIntegrals zeroes every accumulator in the bank. Invoked on every
// flight mode transition.
func (s *AxisSet) ResetIntegrals() {
	for i := range s.rate {
		s.rate[i].ResetIntegral()
		s.levelled[i].ResetIntegral()
	}
}
