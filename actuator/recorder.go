package actuator

// Recorder is a host-side Output that keeps the frames it is handed.
// It stands in for the PWM driver in tests and in the ground-test harness.
type Recorder struct {
	Last   Frame
	Frames []Frame
}

func (r *Recorder) Write(f Frame) {
	r.Last = f
	r.Frames = append(r.Frames, f)
}

// Reset drops the recorded history.
func (r *Recorder) Reset() {
	r.Frames = r.Frames[:0]
	r.Last = Frame{}
}
