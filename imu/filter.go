package imu

import "math"

const degPerRad = 180.0 / math.Pi

// Filter is a two-state Kalman filter estimating pitch and roll: the gyro
// drives the prediction, the accelerometer's gravity direction corrects it.
// Gyro bias is measured once at startup while the airframe is still; until
// that has happened the filter reports itself uncalibrated and the state
// machine stays in Calibrating.
type Filter struct {
	dt float64

	x vec2 // [pitch, roll], radians
	p mat2 // estimate error covariance
	q mat2 // process noise
	r mat2 // measurement noise

	biasX, biasY, biasZ float64
	calibrated          bool

	rateX, rateY, rateZ float64 // bias-corrected rad/s from the last sample
}

// NewFilter creates a filter for a fixed sample interval in seconds.
func NewFilter(dt float64) *Filter {
	return &Filter{
		dt: dt,
		p:  identity2,
		q:  diag2(0.01, 0.01),
		r:  diag2(0.5, 0.5),
	}
}

// SetGyroBias installs the startup bias measurement and marks the filter
// calibrated.
func (f *Filter) SetGyroBias(x, y, z float64) {
	f.biasX, f.biasY, f.biasZ = x, y, z
	f.calibrated = true
}

// AverageBias averages a block of still-airframe samples into a gyro bias.
func AverageBias(samples []Sample) (x, y, z float64) {
	if len(samples) == 0 {
		return 0, 0, 0
	}
	for _, s := range samples {
		x += s.GyroX
		y += s.GyroY
		z += s.GyroZ
	}
	n := float64(len(samples))
	return x / n, y / n, z / n
}

// Update advances the estimate by one sample.
func (f *Filter) Update(s Sample) {
	f.rateX = s.GyroX - f.biasX
	f.rateY = s.GyroY - f.biasY
	f.rateZ = s.GyroZ - f.biasZ

	// Predict: integrate the gyro rates, grow the covariance.
	f.x[0] += f.rateY * f.dt // pitch
	f.x[1] += f.rateX * f.dt // roll
	f.p = f.p.add(f.q)

	// Correct against the accelerometer's gravity angles.
	z := vec2{pitchAccel(s), rollAccel(s)}
	y := z.sub(f.x)
	sInv := f.p.add(f.r).inv()
	k := f.p.mul(sInv)
	f.x = f.x.add(k.mulVec(y))
	f.p = identity2.sub(k).mul(f.p)
}

// Calibrated reports whether the startup gyro bias measurement is done.
func (f *Filter) Calibrated() bool {
	return f.calibrated
}

// Estimate converts the current state into the control pipeline's
// fixed-point units.
func (f *Filter) Estimate() Estimate {
	return Estimate{
		PitchAngle: fix(f.x[0] * degPerRad),
		RollAngle:  fix(f.x[1] * degPerRad),
		RollRate:   fix(f.rateX * degPerRad),
		PitchRate:  fix(f.rateY * degPerRad),
		YawRate:    fix(f.rateZ * degPerRad),
	}
}

func fix(deg float64) int32 {
	return int32(math.Round(deg * 100))
}

// pitchAccel derives the pitch angle in radians from the gravity vector.
func pitchAccel(s Sample) float64 {
	return math.Atan2(-s.AccelX, math.Sqrt(s.AccelY*s.AccelY+s.AccelZ*s.AccelZ))
}

// rollAccel derives the roll angle in radians from the gravity vector.
func rollAccel(s Sample) float64 {
	return math.Atan2(s.AccelY, s.AccelZ)
}
