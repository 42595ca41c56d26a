package rtmp

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/internal/binary24"
	"github.com/torresjeff/go-rtmp/status"
)

// HeaderType is the shape of a chunk header, stored in the two high bits of
// its first byte. Each shape reuses more fields of the previous header sent on
// the same channel.
type HeaderType uint8

const (
	// HeaderNew carries timestamp, size, type and stream id (11 bytes).
	HeaderNew HeaderType = iota
	// HeaderSameSource carries timestamp, size and type (7 bytes).
	HeaderSameSource
	// HeaderTimerChange carries only the timestamp (3 bytes).
	HeaderTimerChange
	// HeaderContinue carries nothing. The chunk continues the previous one.
	HeaderContinue
)

func (t HeaderType) String() string {
	switch t {
	case HeaderNew:
		return "HEADER_NEW"
	case HeaderSameSource:
		return "HEADER_SAME_SOURCE"
	case HeaderTimerChange:
		return "HEADER_TIMER_CHANGE"
	case HeaderContinue:
		return "HEADER_CONTINUE"
	}
	return "HEADER_UNKNOWN"
}

// Length returns the number of bytes following the basic header.
func (t HeaderType) Length() int {
	switch t {
	case HeaderNew:
		return 11
	case HeaderSameSource:
		return 7
	case HeaderTimerChange:
		return 3
	}
	return 0
}

const (
	// MaxNumChannels bounds the channel ids accepted on a connection.
	MaxNumChannels = 32
	// DefaultChunkSize is the chunk size both sides start with.
	DefaultChunkSize = 128
	// MaxChunkSize is the largest chunk size accepted from a peer.
	MaxChunkSize = 65536

	extendedTimestamp       = 0xFFFFFF
	extendedTimestampLength = 4
)

var (
	ErrChannelOutOfRange = errors.Errorf("rtmp: channel id must be below %d", MaxNumChannels)
	ErrNoPreviousHeader  = errors.New("rtmp: continuation header without a previous header on the channel")
)

// Header is the decoded form of a chunk header.
type Header struct {
	ChannelID uint32
	StreamID  uint32
	EventType EventType
	// Timestamp is in milliseconds. It is a delta from the previous header on
	// the channel when Relative is set.
	Timestamp uint32
	Relative  bool
}

func NewHeader(channelID, streamID uint32, eventType EventType, timestamp uint32, relative bool) Header {
	return Header{
		ChannelID: channelID,
		StreamID:  streamID,
		EventType: eventType,
		Timestamp: timestamp,
		Relative:  relative,
	}
}

func (h Header) String() string {
	kind := "ABS"
	if h.Relative {
		kind = "REL"
	}
	return fmt.Sprintf("%s@%8d rtmp::Header[S-%d : C-%d]{%s}", kind, h.Timestamp, h.StreamID, h.ChannelID, h.EventType)
}

// Decode reads one chunk header from in, resolving the fields the header
// does not carry from the last header read on its channel. It returns the
// size of the event body announced by the header.
//
// Decode consumes bytes even when it fails; callers set a marker on in and
// restore it on error.
func (h *Header) Decode(in *bytestream.Stream, state *ProtocolState) (uint32, error) {
	var first byte
	// Zero padding shows up on the wire before some headers.
	for {
		b, err := in.ReadByte()
		if err != nil {
			return 0, status.NoData
		}
		if b != 0 {
			first = b
			break
		}
	}
	headerType := HeaderType(first >> 6)

	// The chunk stream id is either in the low 6 bits, or escaped:
	// 0 means one more byte with the id - 64, 1 means two more bytes, little endian.
	switch first & 0x3f {
	case 0:
		if in.Size() < 1 {
			return 0, status.NoData
		}
		h.ChannelID = 64 + uint32(bytestream.ReadUint8(in))
	case 1:
		if in.Size() < 2 {
			return 0, status.NoData
		}
		h.ChannelID = 64 + uint32(bytestream.ReadUint16(in, binary24.LittleEndian))
	default:
		h.ChannelID = uint32(first & 0x3f)
	}
	if h.ChannelID >= MaxNumChannels {
		return 0, status.Errorf(status.TooManyChannels, "rtmp: invalid channel received: %d", h.ChannelID)
	}

	last, lastSize := state.LastReadHeader(h.ChannelID)
	if headerType != HeaderNew && last == nil {
		return 0, status.Errorf(status.CorruptedData, "rtmp: unknown last header for channel %d, header byte: 0x%02x", h.ChannelID, first)
	}
	if in.Size() < headerType.Length() {
		return 0, status.NoData
	}

	var size uint32
	h.Relative = headerType != HeaderNew
	switch headerType {
	case HeaderNew, HeaderSameSource:
		h.Timestamp = bytestream.ReadUint24(in, binary24.BigEndian)
		size = bytestream.ReadUint24(in, binary24.BigEndian)
		h.EventType = EventType(bytestream.ReadUint8(in))
		if !h.EventType.Valid() {
			return 0, status.Errorf(status.CorruptedData, "rtmp: invalid event type: %d", h.EventType)
		}
		if headerType == HeaderNew {
			// The only little endian field of the protocol.
			h.StreamID = bytestream.ReadUint32(in, binary24.LittleEndian)
		} else {
			h.StreamID = last.StreamID
		}
	case HeaderTimerChange:
		h.Timestamp = bytestream.ReadUint24(in, binary24.BigEndian)
		size = lastSize
		h.EventType = last.EventType
		h.StreamID = last.StreamID
	case HeaderContinue:
		h.Timestamp = last.Timestamp
		size = lastSize
		h.EventType = last.EventType
		h.StreamID = last.StreamID
	}

	// For continuation headers the extended timestamp is expected whenever
	// the previous header had one.
	if h.Timestamp >= extendedTimestamp {
		if in.Size() < extendedTimestampLength {
			return 0, status.NoData
		}
		h.Timestamp = bytestream.ReadUint32(in, binary24.BigEndian)
	}
	return size, nil
}

// Encode writes h using the smallest shape allowed by the last header
// written on the same channel. forceContinue selects HeaderContinue, used for
// every chunk of an event after the first one.
func (h *Header) Encode(state *ProtocolState, size uint32, forceContinue bool, out *bytestream.Stream) error {
	if h.ChannelID >= MaxNumChannels {
		return ErrChannelOutOfRange
	}
	last, lastSize := state.LastWriteHeader(h.ChannelID)
	headerType := HeaderNew
	if forceContinue {
		if last == nil {
			return ErrNoPreviousHeader
		}
		headerType = HeaderContinue
	} else if h.Relative && last != nil && h.StreamID == last.StreamID {
		// Absolute timestamps always go in a HeaderNew.
		headerType = HeaderSameSource
		if size == lastSize && h.EventType == last.EventType {
			headerType = HeaderTimerChange
			if h.Timestamp == last.Timestamp {
				headerType = HeaderContinue
			}
		}
	}

	ts32 := h.Timestamp
	if headerType != HeaderNew && !h.Relative {
		ts32 = 0
		if h.Timestamp > last.Timestamp {
			ts32 = h.Timestamp - last.Timestamp
		}
	}
	isExtended := ts32 >= extendedTimestamp
	ts24 := ts32
	if isExtended {
		ts24 = extendedTimestamp
	}
	if headerType == HeaderContinue {
		ts32 = last.Timestamp
		isExtended = ts32 >= extendedTimestamp
	}

	switch {
	case h.ChannelID <= 0x3f:
		bytestream.WriteUint8(out, byte(headerType)<<6|byte(h.ChannelID))
	case h.ChannelID <= 0x40+0xff:
		bytestream.WriteUint8(out, byte(headerType)<<6)
		bytestream.WriteUint8(out, byte(h.ChannelID-0x40))
	default:
		bytestream.WriteUint8(out, byte(headerType)<<6|1)
		bytestream.WriteUint16(out, uint16(h.ChannelID-0x40), binary24.LittleEndian)
	}

	switch headerType {
	case HeaderNew:
		bytestream.WriteUint24(out, ts24, binary24.BigEndian)
		bytestream.WriteUint24(out, size, binary24.BigEndian)
		bytestream.WriteUint8(out, byte(h.EventType))
		bytestream.WriteUint32(out, h.StreamID, binary24.LittleEndian)
	case HeaderSameSource:
		bytestream.WriteUint24(out, ts24, binary24.BigEndian)
		bytestream.WriteUint24(out, size, binary24.BigEndian)
		bytestream.WriteUint8(out, byte(h.EventType))
	case HeaderTimerChange:
		bytestream.WriteUint24(out, ts24, binary24.BigEndian)
	}
	if isExtended {
		bytestream.WriteUint32(out, ts32, binary24.BigEndian)
	}
	return nil
}
