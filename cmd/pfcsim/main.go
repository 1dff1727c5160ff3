// pfcsim runs the control pipeline on the host against a scripted receiver
// scenario, for bench-checking mixer and mode behaviour without hardware.
// Frames can optionally be streamed over a serial port to a servo tester.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.bug.st/serial"
	"gopkg.in/yaml.v3"

	"github.com/mik4rok/plainFlightController/actuator"
	"github.com/mik4rok/plainFlightController/config"
	"github.com/mik4rok/plainFlightController/fc"
	"github.com/mik4rok/plainFlightController/imu"
	"github.com/mik4rok/plainFlightController/rc"
)

// scenario is the YAML input: a pack voltage, an airframe selection and a
// timeline of receiver frames.
type scenario struct {
	Airframe   string  `yaml:"airframe"`
	Voltage    float64 `yaml:"voltage"`
	DurationMS int     `yaml:"duration_ms"`
	Events     []event `yaml:"events"`
}

type event struct {
	AtMS     int      `yaml:"at_ms"`
	Channels []uint16 `yaml:"channels"`
	Failsafe bool     `yaml:"failsafe"`
}

// levelEstimator stands in for the IMU: wings level, no rotation.
type levelEstimator struct{}

func (levelEstimator) Estimate() imu.Estimate { return imu.Estimate{} }
func (levelEstimator) Calibrated() bool       { return true }

type fixedVolts struct {
	v float64
}

func (f fixedVolts) PackVolts() float64 { return f.v }

func main() {
	scenarioPath := flag.String("scenario", "scenario.yaml", "scenario file")
	portName := flag.String("port", "", "serial port to stream frames to")
	every := flag.Int("print-every", 100, "print one frame per N ms")
	flag.Parse()

	data, err := os.ReadFile(*scenarioPath)
	if err != nil {
		log.Fatalf("read scenario: %v", err)
	}
	var sc scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		log.Fatalf("parse scenario: %v", err)
	}
	if sc.DurationMS <= 0 {
		sc.DurationMS = 1000
	}
	if sc.Voltage == 0 {
		sc.Voltage = 11.9
	}

	cfg := config.Default()
	if sc.Airframe != "" {
		cfg.Airframe, err = airframeByName(sc.Airframe)
		if err != nil {
			log.Fatal(err)
		}
	}

	var rec actuator.Recorder
	ctrl, err := fc.New(cfg, levelEstimator{}, fixedVolts{sc.Voltage}, &rec)
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	var port serial.Port
	if *portName != "" {
		port, err = serial.Open(*portName, &serial.Mode{BaudRate: 115200})
		if err != nil {
			log.Fatalf("open %s: %v", *portName, err)
		}
		defer port.Close()
	}

	log.Printf("scenario %s: %d ms, %.1f V, airframe %v",
		*scenarioPath, sc.DurationMS, sc.Voltage, cfg.Airframe)

	base := time.Now()
	lastMode := ctrl.Mode()
	next := 0

	// The active event's frame is re-offered every millisecond, the way a
	// real receiver repeats frames; otherwise the signal watchdog would trip
	// between events.
	var current rc.Frame
	haveFrame := false

	for ms := 0; ms < sc.DurationMS; ms++ {
		now := base.Add(time.Duration(ms) * time.Millisecond)

		for next < len(sc.Events) && sc.Events[next].AtMS <= ms {
			current = frameOf(sc.Events[next])
			haveFrame = true
			next++
		}
		if haveFrame {
			ctrl.Offer(current, now)
		}

		ctrl.Tick(now)

		if m := ctrl.Mode(); m != lastMode {
			log.Printf("t=%4dms mode %v -> %v", ms, lastMode, m)
			lastMode = m
		}
		if ms%*every == 0 {
			logFrame(ms, rec.Last)
		}
		if port != nil {
			line := fmt.Sprintf("%d,%d,%d,%d,%d,%d\n",
				rec.Last.Servo[0], rec.Last.Servo[1], rec.Last.Servo[2],
				rec.Last.Servo[3], rec.Last.Motor[0], rec.Last.Motor[1])
			if _, err := port.Write([]byte(line)); err != nil {
				log.Fatalf("serial write: %v", err)
			}
		}
	}

	log.Printf("done: %d frames, final mode %v", len(rec.Frames), ctrl.Mode())
}

func frameOf(e event) rc.Frame {
	f := rc.Frame{Failsafe: e.Failsafe}
	for i := range f.Ch {
		f.Ch[i] = config.ChannelCentre
	}
	for i, v := range e.Channels {
		if i >= len(f.Ch) {
			break
		}
		f.Ch[i] = v
	}
	return f
}

func logFrame(ms int, f actuator.Frame) {
	log.Printf("t=%4dms servos %4d %4d %4d %4d motors %4d %4d",
		ms, f.Servo[0], f.Servo[1], f.Servo[2], f.Servo[3], f.Motor[0], f.Motor[1])
}

func airframeByName(name string) (config.Airframe, error) {
	switch name {
	case "flying-wing":
		return config.FlyingWing, nil
	case "full-house":
		return config.FullHouse, nil
	case "full-house-vtail":
		return config.FullHouseVTail, nil
	case "vtail":
		return config.VTail, nil
	case "rudder-elevator":
		return config.RudderElevator, nil
	}
	return 0, fmt.Errorf("unknown airframe %q", name)
}
