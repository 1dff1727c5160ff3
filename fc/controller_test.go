package fc

import (
	"testing"
	"time"

	"github.com/mik4rok/plainFlightController/actuator"
	"github.com/mik4rok/plainFlightController/config"
	"github.com/mik4rok/plainFlightController/control"
	"github.com/mik4rok/plainFlightController/imu"
	"github.com/mik4rok/plainFlightController/mode"
	"github.com/mik4rok/plainFlightController/rc"
)

type stubEst struct {
	est imu.Estimate
	cal bool
}

func (s *stubEst) Estimate() imu.Estimate { return s.est }
func (s *stubEst) Calibrated() bool       { return s.cal }

type stubVolts struct {
	v float64
}

func (s stubVolts) PackVolts() float64 { return s.v }

// rig bundles a controller with its collaborators and a monotonic clock.
type rig struct {
	ctrl *Controller
	est  *stubEst
	rec  *actuator.Recorder
	now  time.Time
}

func newRig(t *testing.T, cfg config.Config, volts float64) *rig {
	t.Helper()
	est := &stubEst{cal: true}
	rec := &actuator.Recorder{}
	ctrl, err := New(cfg, est, stubVolts{volts}, rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &rig{ctrl: ctrl, est: est, rec: rec, now: time.Now()}
}

// tick advances the clock one loop period, feeds a frame and runs the pipeline.
func (r *rig) tick(f rc.Frame) {
	r.now = r.now.Add(time.Millisecond)
	r.ctrl.Offer(f, r.now)
	r.ctrl.Tick(r.now)
}

func baseFrame() rc.Frame {
	var f rc.Frame
	for i := range f.Ch {
		f.Ch[i] = config.ChannelCentre
	}
	f.Ch[config.ChThrottle] = config.ChannelMin
	f.Ch[config.ChArm] = config.ChannelMin
	f.Ch[config.ChMode] = config.ChannelMin
	f.Ch[config.ChAux1] = config.ChannelMin
	f.Ch[config.ChAux2] = config.ChannelMin
	return f
}

func armedFrame(modeSw uint16) rc.Frame {
	f := baseFrame()
	f.Ch[config.ChArm] = config.ChannelMax
	f.Ch[config.ChMode] = modeSw
	return f
}

func TestStartupCalibratesThenDisarms(t *testing.T) {
	r := newRig(t, config.Default(), 11.9)
	r.est.cal = false

	if r.ctrl.Mode() != mode.Calibrating {
		t.Fatalf("initial mode %v, want Calibrating", r.ctrl.Mode())
	}
	r.tick(baseFrame())
	if r.ctrl.Mode() != mode.Calibrating {
		t.Errorf("mode %v before calibration done, want Calibrating", r.ctrl.Mode())
	}

	r.est.cal = true
	r.tick(baseFrame())
	if r.ctrl.Mode() != mode.Disarmed {
		t.Errorf("mode %v after calibration, want Disarmed", r.ctrl.Mode())
	}
}

func TestDisarmedCentresServosAndIdlesMotors(t *testing.T) {
	r := newRig(t, config.Default(), 11.9)
	r.tick(baseFrame())
	r.tick(baseFrame())

	f := r.rec.Last
	for i, s := range f.Servo {
		if s != 1500 {
			t.Errorf("servo %d = %d, want 1500", i, s)
		}
	}
	for i, m := range f.Motor {
		if m != 1000 {
			t.Errorf("motor %d = %d, want 1000", i, m)
		}
	}
}

func TestArmingRequiresLowThrottle(t *testing.T) {
	r := newRig(t, config.Default(), 11.9)
	r.tick(baseFrame()) // leave Calibrating

	high := armedFrame(config.ChannelCentre)
	high.Ch[config.ChThrottle] = config.ChannelMax
	r.tick(high)
	if r.ctrl.Mode() != mode.Disarmed {
		t.Fatalf("armed at high throttle: mode %v, want Disarmed", r.ctrl.Mode())
	}

	r.tick(armedFrame(config.ChannelCentre))
	if r.ctrl.Mode() != mode.Rate {
		t.Errorf("mode %v, want Rate", r.ctrl.Mode())
	}
}

func TestModeSwitchSelectsMode(t *testing.T) {
	tests := []struct {
		sw   uint16
		want mode.FlightMode
	}{
		{config.ChannelMin, mode.PassThrough},
		{config.ChannelCentre, mode.Rate},
		{config.ChannelMax, mode.AutoLevel},
	}
	for _, tt := range tests {
		r := newRig(t, config.Default(), 11.9)
		r.tick(baseFrame())
		r.tick(armedFrame(tt.sw))
		if got := r.ctrl.Mode(); got != tt.want {
			t.Errorf("switch %d: mode %v, want %v", tt.sw, got, tt.want)
		}
	}
}

func TestPassThroughMapsSticksToServos(t *testing.T) {
	r := newRig(t, config.Default(), 11.9)
	r.tick(baseFrame())
	r.tick(armedFrame(config.ChannelMin)) // PassThrough

	f := armedFrame(config.ChannelMin)
	f.Ch[config.ChRoll] = config.ChannelMax
	r.tick(f)

	// Flying wing: both elevons follow a pure roll demand.
	out := r.rec.Last
	if out.Servo[0] != 2000 || out.Servo[1] != 2000 {
		t.Errorf("elevons = %d %d, want 2000 2000", out.Servo[0], out.Servo[1])
	}
	if out.Servo[2] != 1500 {
		t.Errorf("rudder = %d, want 1500", out.Servo[2])
	}
}

func TestThrottlePassesThroughWhenArmed(t *testing.T) {
	r := newRig(t, config.Default(), 11.9)
	r.tick(baseFrame())
	r.tick(armedFrame(config.ChannelMin))

	f := armedFrame(config.ChannelMin)
	f.Ch[config.ChThrottle] = config.ChannelMax
	r.tick(f)

	out := r.rec.Last
	if out.Motor[0] != 2000 || out.Motor[1] != 2000 {
		t.Errorf("motors = %d %d, want 2000 2000", out.Motor[0], out.Motor[1])
	}
}

func TestRateModeSaturatedDemandDeflectsFully(t *testing.T) {
	r := newRig(t, config.Default(), 11.9)
	r.tick(baseFrame())
	r.tick(armedFrame(config.ChannelCentre)) // Rate

	// Full roll stick with the airframe not rotating: the controller
	// saturates and the elevons hit the end stops.
	f := armedFrame(config.ChannelCentre)
	f.Ch[config.ChRoll] = config.ChannelMax
	r.tick(f)

	out := r.rec.Last
	if out.Servo[0] != 2000 || out.Servo[1] != 2000 {
		t.Errorf("elevons = %d %d, want 2000 2000", out.Servo[0], out.Servo[1])
	}
}

func TestRateModeCentredSticksHoldCentre(t *testing.T) {
	r := newRig(t, config.Default(), 11.9)
	r.tick(baseFrame())
	for i := 0; i < 10; i++ {
		r.tick(armedFrame(config.ChannelCentre))
	}
	out := r.rec.Last
	for i, s := range out.Servo {
		if s != 1500 {
			t.Errorf("servo %d = %d, want 1500", i, s)
		}
	}
}

func TestSignalLossForcesFailsafe(t *testing.T) {
	r := newRig(t, config.Default(), 11.9)
	r.tick(baseFrame())
	r.tick(armedFrame(config.ChannelCentre))
	if r.ctrl.Mode() != mode.Rate {
		t.Fatalf("mode %v, want Rate", r.ctrl.Mode())
	}

	// No frames for longer than the watchdog window.
	r.now = r.now.Add(25 * time.Millisecond)
	r.ctrl.Tick(r.now)

	if r.ctrl.Mode() != mode.Failsafe {
		t.Fatalf("mode %v after signal loss, want Failsafe", r.ctrl.Mode())
	}
	out := r.rec.Last
	if out.Motor[0] != 1000 || out.Motor[1] != 1000 {
		t.Errorf("motors = %d %d in failsafe, want 1000 1000", out.Motor[0], out.Motor[1])
	}
	// The levelled bank flies the configured gentle bank.
	if out.Servo[0] <= 1500 {
		t.Errorf("servo 0 = %d, want right-bank deflection above 1500", out.Servo[0])
	}
}

func TestFailsafeFlagFromReceiverForcesFailsafe(t *testing.T) {
	r := newRig(t, config.Default(), 11.9)
	r.tick(baseFrame())
	r.tick(armedFrame(config.ChannelCentre))

	f := armedFrame(config.ChannelCentre)
	f.Failsafe = true
	r.tick(f)
	if r.ctrl.Mode() != mode.Failsafe {
		t.Errorf("mode %v, want Failsafe", r.ctrl.Mode())
	}
}

func TestBatteryGovernorCutsMotors(t *testing.T) {
	// 10.2 V reads as a 3S pack at 3.40 V per cell: the pulse band.
	r := newRig(t, config.Default(), 10.2)
	r.tick(baseFrame())
	r.tick(armedFrame(config.ChannelMin)) // PassThrough

	f := armedFrame(config.ChannelMin)
	f.Ch[config.ChThrottle] = config.ChannelMax
	r.tick(f)

	out := r.rec.Last
	if out.Motor[0] != 1000 || out.Motor[1] != 1000 {
		t.Fatalf("motors = %d %d during cut phase, want 1000 1000", out.Motor[0], out.Motor[1])
	}

	// After the off time the pass phase restores throttle.
	r.now = r.now.Add(300 * time.Millisecond)
	r.ctrl.Offer(f, r.now)
	r.ctrl.Tick(r.now)
	out = r.rec.Last
	if out.Motor[0] != 2000 || out.Motor[1] != 2000 {
		t.Errorf("motors = %d %d during pass phase, want 2000 2000", out.Motor[0], out.Motor[1])
	}
}

func TestDifferentialThrottleMixesYaw(t *testing.T) {
	cfg := config.Default()
	cfg.Throttle = config.Differential
	r := newRig(t, cfg, 11.9)
	r.tick(baseFrame())
	r.tick(armedFrame(config.ChannelMin)) // PassThrough

	f := armedFrame(config.ChannelMin)
	f.Ch[config.ChThrottle] = config.ChannelCentre
	f.Ch[config.ChYaw] = config.ChannelMax
	r.tick(f)

	out := r.rec.Last
	if out.Motor[0] <= out.Motor[1] {
		t.Errorf("motors = %d %d, want yaw to spread them", out.Motor[0], out.Motor[1])
	}
}

func TestFlapMixing(t *testing.T) {
	cfg := config.Default()
	cfg.Airframe = config.FullHouse
	cfg.FlapMixing = true
	cfg.FlapTravel = 40
	r := newRig(t, cfg, 11.9)
	r.tick(baseFrame())

	f := baseFrame()
	f.Ch[config.ChAux1] = config.ChannelMax
	r.tick(f)

	out := r.rec.Last
	if out.Servo[0] != 1540 || out.Servo[1] != 1460 {
		t.Errorf("ailerons = %d %d with full flap, want 1540 1460", out.Servo[0], out.Servo[1])
	}

	f.Ch[config.ChAux1] = config.ChannelCentre
	r.tick(f)
	out = r.rec.Last
	if out.Servo[0] != 1520 || out.Servo[1] != 1480 {
		t.Errorf("ailerons = %d %d with half flap, want 1520 1480", out.Servo[0], out.Servo[1])
	}
}

func TestServoTrimApplied(t *testing.T) {
	cfg := config.Default()
	cfg.Trim = [4]int32{5, -5, 0, 0}
	r := newRig(t, cfg, 11.9)
	r.tick(baseFrame())
	r.tick(baseFrame())

	out := r.rec.Last
	if out.Servo[0] != 1505 || out.Servo[1] != 1495 {
		t.Errorf("servos = %d %d, want 1505 1495", out.Servo[0], out.Servo[1])
	}
}

func TestModeTransitionResetsIntegrals(t *testing.T) {
	r := newRig(t, config.Default(), 11.9)
	r.tick(baseFrame())
	r.tick(armedFrame(config.ChannelCentre)) // Rate

	// Hold a roll demand against a stationary airframe: the rate-bank roll
	// integral winds up.
	f := armedFrame(config.ChannelCentre)
	f.Ch[config.ChRoll] = config.ChannelMax
	for i := 0; i < 50; i++ {
		r.tick(f)
	}
	if r.ctrl.axes.Rate(control.Roll).Integral() == 0 {
		t.Fatal("rate roll integral did not wind up")
	}

	// Flip to auto-level: the transition must zero every accumulator before
	// the new mode's first evaluation. AutoLevel never touches the rate roll
	// controller, so its integral must read exactly zero after the tick.
	r.tick(armedFrame(config.ChannelMax))
	if r.ctrl.Mode() != mode.AutoLevel {
		t.Fatalf("mode %v, want AutoLevel", r.ctrl.Mode())
	}
	if got := r.ctrl.axes.Rate(control.Roll).Integral(); got != 0 {
		t.Errorf("rate roll integral = %v after transition, want 0", got)
	}
	// Centred sticks, level estimate: the levelled bank starts from zero too.
	if got := r.ctrl.axes.Levelled(control.Roll).Integral(); got != 0 {
		t.Errorf("levelled roll integral = %v after transition, want 0", got)
	}
}

func TestHeadingHoldDriftCorrectionAccumulates(t *testing.T) {
	r := newRig(t, config.Default(), 11.9)
	r.tick(baseFrame())
	r.tick(armedFrame(config.ChannelCentre)) // Rate

	// An uncommanded yaw rate with the hold engaged (aux2 high, yaw stick
	// centred): the levelled yaw controller works against the rate and its
	// integral accumulates the drift correction.
	r.est.est.YawRate = 1000
	f := armedFrame(config.ChannelCentre)
	f.Ch[config.ChAux2] = config.ChannelMax

	r.tick(f)
	first := r.ctrl.axes.Levelled(control.Yaw).Integral()
	if first >= 0 {
		t.Fatalf("levelled yaw integral = %v after one held tick, want negative", first)
	}
	for i := 0; i < 50; i++ {
		r.tick(f)
	}
	if got := r.ctrl.axes.Levelled(control.Yaw).Integral(); got >= first {
		t.Errorf("levelled yaw integral = %v, want below %v (growing correction)", got, first)
	}
	// The rate yaw controller sits idle while the hold flies the axis.
	if got := r.ctrl.axes.Rate(control.Yaw).Integral(); got != 0 {
		t.Errorf("rate yaw integral = %v during hold, want 0", got)
	}
	// Flying wing: the rudder opposes the drift.
	if out := r.rec.Last; out.Servo[2] >= 1500 {
		t.Errorf("rudder = %d, want counter-yaw deflection below 1500", out.Servo[2])
	}
}

func TestHeadingHoldInactiveClearsLevelledYawIntegral(t *testing.T) {
	r := newRig(t, config.Default(), 11.9)
	r.tick(baseFrame())
	r.tick(armedFrame(config.ChannelCentre)) // Rate

	// Same uncommanded yaw rate with the hold disengaged: the rate
	// controller flies the axis and the levelled yaw integral is cleared
	// every tick so the hold always engages without wound-up correction.
	r.est.est.YawRate = 1000
	f := armedFrame(config.ChannelCentre)
	for i := 0; i < 10; i++ {
		r.tick(f)
		if got := r.ctrl.axes.Levelled(control.Yaw).Integral(); got != 0 {
			t.Fatalf("levelled yaw integral = %v on tick %d, want 0", got, i)
		}
	}
	if got := r.ctrl.axes.Rate(control.Yaw).Integral(); got >= 0 {
		t.Errorf("rate yaw integral = %v, want negative (damping the rate)", got)
	}
	if out := r.rec.Last; out.Servo[2] >= 1500 {
		t.Errorf("rudder = %d, want damping deflection below 1500", out.Servo[2])
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	cfg := config.Default()
	cfg.FlapMixing = true // flying wing has no flaps
	if _, err := New(cfg, &stubEst{cal: true}, stubVolts{11.9}, &actuator.Recorder{}); err == nil {
		t.Error("expected configuration error")
	}
}
