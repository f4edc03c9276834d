// Package wire implements the length-framed message format shared by the
// client and server halves of the RPC fabric: the 8-byte header, the
// MessagePack payload codec, and the streaming frame parser.
package wire

import "encoding/binary"

// EventType tags the purpose of a frame.
type EventType uint8

const (
	// EventRequest marks a frame carrying a [method, args] call.
	EventRequest EventType = 1
	// EventResponse marks a frame carrying a call result or error payload.
	EventResponse EventType = 2
	// EventAuth is reserved; no handshake is defined on top of it.
	EventAuth EventType = 3
)

func (e EventType) String() string {
	switch e {
	case EventRequest:
		return "REQUEST"
	case EventResponse:
		return "RESPONSE"
	case EventAuth:
		return "AUTH"
	default:
		return "UNKNOWN"
	}
}

// Magic is the constant low byte every header must carry. Any other value
// is a fatal frame error.
const Magic uint8 = 72

// HeaderSize is the fixed size in bytes of the frame header.
const HeaderSize = 8

// MaxSequenceID is the highest sequence value a producer may hand out;
// generators wrap back to 0 after reaching it.
const MaxSequenceID = 65534

// Header is the decoded form of the 8-byte frame prefix:
//
//	63      32 31  16 15 12 11 10 8 7    0
//	+---------+------+-----+-+----+------+
//	| paylen  | seq  | et  |c|err| magic|
//	+---------+------+-----+-+----+------+
//	   32       16    4    1  3     8
type Header struct {
	PayloadLen   uint32
	Seq          uint16
	EventType    EventType
	CompressFlag bool
	Errno        uint8
}

// EncodeHeader packs the given fields into the 8-byte wire layout. Field
// widths are the caller's responsibility; no range validation is performed.
func EncodeHeader(h Header) [HeaderSize]byte {
	var b [HeaderSize]byte
	binary.BigEndian.PutUint32(b[0:4], h.PayloadLen)
	binary.BigEndian.PutUint16(b[4:6], h.Seq)

	var tail uint16
	tail |= uint16(h.EventType&0xF) << 12
	if h.CompressFlag {
		tail |= 1 << 11
	}
	tail |= uint16(h.Errno&0x7) << 8
	tail |= uint16(Magic)
	binary.BigEndian.PutUint16(b[6:8], tail)

	return b
}

// DecodeHeader unpacks the 8-byte wire layout. It fails with a FrameError
// if the magic byte does not match; no other semantic validation is done
// here (paylen bounds, event type legality, etc. are the caller's concern).
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, NewError(KindFrameError, "wire: short header")
	}

	tail := binary.BigEndian.Uint16(b[6:8])
	magic := uint8(tail & 0xFF)
	if magic != Magic {
		return Header{}, NewError(KindFrameError, "wire: bad magic byte")
	}

	return Header{
		PayloadLen:   binary.BigEndian.Uint32(b[0:4]),
		Seq:          binary.BigEndian.Uint16(b[4:6]),
		EventType:    EventType((tail >> 12) & 0xF),
		CompressFlag: (tail>>11)&0x1 == 1,
		Errno:        uint8((tail >> 8) & 0x7),
	}, nil
}
