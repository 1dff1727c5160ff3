// Package control implements the PIDF control law and the six-instance axis
// bank the flight modes select from.
package control

import "github.com/mik4rok/plainFlightController/config"

// PIDF holds the state for one proportional-integral-derivative-feedforward
// controller. Demand and measurement share whatever fixed-point unit the
// caller uses; the output is clamped to the signal limit.
type PIDF struct {
	gains         config.Gains
	integralLimit float64

	integral  float64
	prevError float64
}

// NewPIDF creates a controller with zeroed state.
func NewPIDF(gains config.Gains, integralLimit float64) *PIDF {
	return &PIDF{gains: gains, integralLimit: integralLimit}
}

// Evaluate runs one control step: error = demand - measurement, output =
// P + clamped I + D + feedforward, clamped to the signal limit.
func (p *PIDF) Evaluate(demand, measurement int32) int32 {
	err := float64(demand - measurement)

	p.integral += p.gains.I * err * config.LoopDT
	if p.integral > p.integralLimit {
		p.integral = p.integralLimit
	} else if p.integral < -p.integralLimit {
		p.integral = -p.integralLimit
	}

	derivative := p.gains.D * (err - p.prevError) / config.LoopDT
	p.prevError = err

	out := p.gains.P*err + p.integral + derivative + p.gains.F*float64(demand)

	if out > config.SignalLimit {
		return config.SignalLimit
	}
	if out < -config.SignalLimit {
		return -config.SignalLimit
	}
	return int32(out)
}

// ResetIntegral zeroes the integral accumulator only. Called on every flight
// mode transition, before the first evaluation in the new mode.
func (p *PIDF) ResetIntegral() {
	p.integral = 0
}

// Integral exposes the accumulator for diagnostics and tests.
func (p *PIDF) Integral() float64 {
	return p.integral
}
