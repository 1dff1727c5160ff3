// Package imu defines the orientation/rate estimate the control core
// consumes, and provides the Kalman-filter estimator the firmware runs
// against the inertial sensor.
package imu

// Estimate is the orientation and angular-rate vector handed to the control
// pipeline each tick. Angles are degrees*100, rates degrees/second*100,
// matching the fixed-point units of the pilot command.
type Estimate struct {
	RollAngle  int32
	PitchAngle int32

	RollRate  int32
	PitchRate int32
	YawRate   int32
}

// Estimator is the external-collaborator boundary: the core only ever asks
// for the current estimate and whether startup calibration has finished.
type Estimator interface {
	Estimate() Estimate
	Calibrated() bool
}

// Sample is one raw inertial reading in SI units: accelerometer in m/s^2,
// gyro in rad/s.
type Sample struct {
	AccelX, AccelY, AccelZ float64
	GyroX, GyroY, GyroZ    float64
}
