//go:build tinygo

// Firmware entry point. Everything hardware-specific lives here: UART in
// from the receiver, I2C to the inertial sensor, ADC battery sensing, PWM
// out to servos and ESCs. The control core itself is hardware-free.
package main

import (
	"machine"
	"math"
	"time"

	"tinygo.org/x/drivers/lsm6ds3tr"

	"github.com/mik4rok/plainFlightController/actuator"
	"github.com/mik4rok/plainFlightController/config"
	"github.com/mik4rok/plainFlightController/fc"
	"github.com/mik4rok/plainFlightController/imu"
	"github.com/mik4rok/plainFlightController/led"
	"github.com/mik4rok/plainFlightController/receiver"
)

const Version = "1.0.0"

const (
	// The LSM6DS3TR driver reports micro-g and micro-dps.
	microGToMS2    = 9.80665 / 1e6
	microDPSToRadS = math.Pi / (180 * 1e6)

	receiverBaud = 115200 // iBus; CRSF links run 420000
	biasSamples  = 1000

	// Battery divider: ADC counts to pack volts.
	adcReference = 3.3
	adcMax       = 65535
	dividerRatio = 11.0
)

// --- Pin assignments ---
const (
	servo1Pin = machine.D2
	servo2Pin = machine.D3
	servo3Pin = machine.D4
	servo4Pin = machine.D5
	motor1Pin = machine.D6
	motor2Pin = machine.D7

	batteryPin = machine.A0
)

var (
	servoPWM = machine.PWM0
	motorPWM = machine.PWM1
)

type packVoltage struct {
	adc machine.ADC
}

func (p packVoltage) PackVolts() float64 {
	return float64(p.adc.Get()) * adcReference / adcMax * dividerRatio
}

// pwmTimer is the slice of the machine PWM API the output driver needs.
type pwmTimer interface {
	Configure(machine.PWMConfig) error
	Channel(machine.Pin) (uint8, error)
	Set(ch uint8, value uint32)
	Top() uint32
}

// pwmOutput writes actuator frames to the two PWM timer groups.
type pwmOutput struct {
	servo   pwmTimer
	motor   pwmTimer
	servoCh [4]uint8
	motorCh [2]uint8

	servoPeriodNs uint64
	motorPeriodNs uint64
	ticksPerUs    uint64
}

func (o *pwmOutput) Write(f actuator.Frame) {
	for i, v := range f.Servo {
		o.servo.Set(o.servoCh[i], o.duty(o.servo, v, o.servoPeriodNs))
	}
	for i, v := range f.Motor {
		o.motor.Set(o.motorCh[i], o.duty(o.motor, v, o.motorPeriodNs))
	}
}

// duty converts output ticks to a duty value against the timer's top count.
func (o *pwmOutput) duty(t pwmTimer, ticks uint32, periodNs uint64) uint32 {
	ns := uint64(ticks) * 1000 / o.ticksPerUs
	return uint32(ns * uint64(t.Top()) / periodNs)
}

func configureOutputs(cfg config.Config) (*pwmOutput, error) {
	servoPeriod := uint64(machine.GHz) / 200 // 200 Hz servo refresh
	motorPeriod := uint64(machine.GHz) / 500 // 500 Hz ESC refresh
	if cfg.Protocol == config.Oneshot125 {
		motorPeriod = uint64(machine.GHz) / 2000
	}

	out := &pwmOutput{
		servo:         servoPWM,
		motor:         motorPWM,
		servoPeriodNs: servoPeriod,
		motorPeriodNs: motorPeriod,
		ticksPerUs:    uint64(actuator.TimingFor(cfg.Protocol).TrimScale),
	}

	if err := servoPWM.Configure(machine.PWMConfig{Period: servoPeriod}); err != nil {
		return nil, err
	}
	if err := motorPWM.Configure(machine.PWMConfig{Period: motorPeriod}); err != nil {
		return nil, err
	}

	servoPins := [4]machine.Pin{servo1Pin, servo2Pin, servo3Pin, servo4Pin}
	for i, pin := range servoPins {
		ch, err := servoPWM.Channel(pin)
		if err != nil {
			return nil, err
		}
		out.servoCh[i] = ch
	}
	motorPins := [2]machine.Pin{motor1Pin, motor2Pin}
	for i, pin := range motorPins {
		ch, err := motorPWM.Channel(pin)
		if err != nil {
			return nil, err
		}
		out.motorCh[i] = ch
	}
	return out, nil
}

func main() {
	time.Sleep(2 * time.Second)
	println("plainFlightController", Version)

	cfg := config.Default()

	uart := machine.DefaultUART
	uart.Configure(machine.UARTConfig{
		BaudRate: receiverBaud,
		TX:       machine.NoPin,
		RX:       machine.UART_RX_PIN,
	})

	i2c := machine.I2C0
	i2c.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz})
	lsm := lsm6ds3tr.New(i2c)
	if err := lsm.Configure(lsm6ds3tr.Configuration{
		AccelRange:      lsm6ds3tr.ACCEL_8G,
		AccelSampleRate: lsm6ds3tr.ACCEL_SR_104,
		GyroRange:       lsm6ds3tr.GYRO_1000DPS,
		GyroSampleRate:  lsm6ds3tr.GYRO_SR_104,
	}); err != nil {
		for {
			println("LSM6DS3TR configure failed:", err.Error())
			time.Sleep(time.Second)
		}
	}

	machine.InitADC()
	adc := machine.ADC{Pin: batteryPin}
	adc.Configure(machine.ADCConfig{})

	out, err := configureOutputs(cfg)
	if err != nil {
		for {
			println("PWM configure failed:", err.Error())
			time.Sleep(time.Second)
		}
	}

	filter := imu.NewFilter(config.LoopDT)

	ctrl, err := fc.New(cfg, filter, packVoltage{adc}, out)
	if err != nil {
		for {
			println("bad configuration:", err.Error())
			time.Sleep(time.Second)
		}
	}

	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	status := led.NewSequencer(machine.LED)

	// Receiver bytes arrive on their own goroutine; completed frames are
	// handed to the controller through the decoder's frame buffer.
	parser := receiver.NewIBus()
	go func() {
		for {
			b, err := uart.ReadByte()
			if err != nil {
				time.Sleep(time.Millisecond)
				continue
			}
			if frame, ok := parser.Feed(b); ok {
				ctrl.Offer(frame, time.Now())
			}
		}
	}()

	// Keep the airframe still: measure the gyro bias.
	println("calibrating gyro, keep the airframe still")
	calibrateGyro(lsm, filter)
	println("calibration done")

	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 500})
	machine.Watchdog.Start()

	ticker := time.NewTicker(time.Second / config.LoopHz)
	defer ticker.Stop()

	for {
		<-ticker.C
		now := time.Now()

		filter.Update(readSample(lsm))
		ctrl.Tick(now)

		status.Set(led.PatternFor(ctrl.Mode(), ctrl.Battery().Warning()), now)
		status.Update(now)

		machine.Watchdog.Update()
	}
}

func readSample(lsm *lsm6ds3tr.Device) imu.Sample {
	ax, ay, az, _ := lsm.ReadAcceleration()
	gx, gy, gz, _ := lsm.ReadRotation()
	return imu.Sample{
		AccelX: float64(ax) * microGToMS2,
		AccelY: float64(ay) * microGToMS2,
		AccelZ: float64(az) * microGToMS2,
		GyroX:  float64(gx) * microDPSToRadS,
		GyroY:  float64(gy) * microDPSToRadS,
		GyroZ:  float64(gz) * microDPSToRadS,
	}
}

func calibrateGyro(lsm *lsm6ds3tr.Device, filter *imu.Filter) {
	samples := make([]imu.Sample, 0, biasSamples)
	for i := 0; i < biasSamples; i++ {
		samples = append(samples, readSample(lsm))
		time.Sleep(time.Millisecond)
	}
	filter.SetGyroBias(imu.AverageBias(samples))
}
