package receiver

import (
	"github.com/mik4rok/plainFlightController/config"
	"github.com/mik4rok/plainFlightController/rc"
)

// FlySky iBus: 0x20 0x40 header, 14 little-endian channel words in
// microseconds, 0xFFFF-minus-sum checksum.
const (
	ibusHeader1  = 0x20
	ibusHeader2  = 0x40
	ibusChannels = 14
	ibusPayload  = ibusChannels * 2
	ibusLength   = 2 + ibusPayload + 2

	// iBus channel values are servo microseconds.
	ibusMin = 1000
	ibusMax = 2000
)

type ibusState int

const (
	ibusWaitHeader1 ibusState = iota
	ibusWaitHeader2
	ibusPayloadBytes
	ibusChecksumLow
	ibusChecksumHigh
)

// IBus is a byte-fed iBus frame parser.
type IBus struct {
	state   ibusState
	payload [ibusPayload]byte
	index   int
	sum     uint16
	cksum   uint16
}

func NewIBus() *IBus {
	return &IBus{}
}

func (p *IBus) Feed(b byte) (rc.Frame, bool) {
	switch p.state {
	case ibusWaitHeader1:
		if b == ibusHeader1 {
			p.state = ibusWaitHeader2
		}

	case ibusWaitHeader2:
		if b != ibusHeader2 {
			p.state = ibusWaitHeader1
			break
		}
		p.index = 0
		p.sum = 0xFFFF - ibusHeader1 - ibusHeader2
		p.state = ibusPayloadBytes

	case ibusPayloadBytes:
		p.payload[p.index] = b
		p.sum -= uint16(b)
		p.index++
		if p.index == ibusPayload {
			p.state = ibusChecksumLow
		}

	case ibusChecksumLow:
		p.cksum = uint16(b)
		p.state = ibusChecksumHigh

	case ibusChecksumHigh:
		p.cksum |= uint16(b) << 8
		p.state = ibusWaitHeader1
		if p.cksum == p.sum {
			return p.frame(), true
		}
	}
	return rc.Frame{}, false
}

func (p *IBus) frame() rc.Frame {
	var f rc.Frame
	for i := 0; i < config.NumChannels && i < ibusChannels; i++ {
		us := uint16(p.payload[2*i]) | uint16(p.payload[2*i+1])<<8
		f.Ch[i] = normalizeIBus(us)
	}
	return f
}

// normalizeIBus maps iBus microseconds onto the calibrated channel scale
// shared by all protocols.
func normalizeIBus(us uint16) uint16 {
	if us < ibusMin {
		us = ibusMin
	}
	if us > ibusMax {
		us = ibusMax
	}
	span := int32(config.ChannelMax - config.ChannelMin)
	return uint16(int32(config.ChannelMin) + int32(us-ibusMin)*span/(ibusMax-ibusMin))
}
