// Package receiver decodes serial receiver protocols (iBus, CRSF/ELRS) into
// demultiplexed channel frames. Parsers are fed one byte at a time so they
// can sit directly behind a UART on hardware or behind a byte slice in
// tests; they hold no hardware state.
package receiver

import "github.com/mik4rok/plainFlightController/rc"

// Parser consumes raw link bytes and emits complete channel frames.
type Parser interface {
	// Feed advances the parser by one byte. When the byte completes a
	// valid frame, the frame is returned with ok true.
	Feed(b byte) (frame rc.Frame, ok bool)
}
