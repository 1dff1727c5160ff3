package receiver

import (
	"github.com/mik4rok/plainFlightController/config"
	"github.com/mik4rok/plainFlightController/rc"
)

// CRSF (Crossfire / ExpressLRS): [addr][len][type][payload...][crc8], with
// RC channels packed as 16 x 11-bit values. Channel values are already on
// the calibrated 172..1811 scale the rest of the system uses.
const (
	crsfAddrFlightController = 0xC8
	crsfTypeRCChannels       = 0x16

	crsfChannelsPayload = 22 // 16 channels * 11 bits
	crsfMaxBody         = 62
)

type crsfState int

const (
	crsfWaitAddr crsfState = iota
	crsfWaitLength
	crsfBody
)

// CRSF is a byte-fed CRSF frame parser. ELRS uses the same framing, so the
// one parser serves both links.
type CRSF struct {
	state  crsfState
	body   [crsfMaxBody]byte // type + payload + crc
	length int
	index  int
}

func NewCRSF() *CRSF {
	return &CRSF{}
}

func (p *CRSF) Feed(b byte) (rc.Frame, bool) {
	switch p.state {
	case crsfWaitAddr:
		if b == crsfAddrFlightController {
			p.state = crsfWaitLength
		}

	case crsfWaitLength:
		// Length counts type + payload + crc.
		if b < 2 || int(b) > crsfMaxBody {
			p.state = crsfWaitAddr
			break
		}
		p.length = int(b)
		p.index = 0
		p.state = crsfBody

	case crsfBody:
		p.body[p.index] = b
		p.index++
		if p.index < p.length {
			break
		}
		p.state = crsfWaitAddr

		// CRC covers type + payload.
		if crc8DVBS2(p.body[:p.length-1]) != p.body[p.length-1] {
			break
		}
		if p.body[0] != crsfTypeRCChannels || p.length-2 != crsfChannelsPayload {
			break
		}
		return p.frame(), true
	}
	return rc.Frame{}, false
}

// frame unpacks the 11-bit packed channel values.
func (p *CRSF) frame() rc.Frame {
	bitstream := p.body[1 : 1+crsfChannelsPayload]

	var f rc.Frame
	var merged uint
	var value uint32
	var at int

	for n := 0; n < config.NumChannels; n++ {
		for merged < 11 {
			value |= uint32(bitstream[at]) << merged
			at++
			merged += 8
		}
		f.Ch[n] = uint16(value & 0x07FF)
		value >>= 11
		merged -= 11
	}
	return f
}

// crc8DVBS2 is the CRSF frame checksum (CRC8 poly 0xD5).
func crc8DVBS2(data []byte) byte {
	crc := byte(0)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0xD5
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
