package rtmp

import (
	"fmt"
	"strings"

	"github.com/torresjeff/go-rtmp/amf/amf0"
	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/internal/binary24"
	"github.com/torresjeff/go-rtmp/status"
)

var bigEndian = binary24.BigEndian

// Bulk is an event whose body is kept as raw bytes: audio, video, shared
// object and media data events.
type Bulk struct {
	eventHeader
	data *bytestream.Stream
}

// NewBulk returns a bulk event of type t. data is shared, not copied; nil
// means an empty body.
func NewBulk(h Header, t EventType, data *bytestream.Stream) *Bulk {
	if data == nil {
		data = bytestream.New(bytestream.DefaultBlockSize)
	}
	return &Bulk{eventHeader: headerFor(h, t), data: data}
}

func (b *Bulk) Data() *bytestream.Stream {
	return b.data
}

// SetData replaces the body with the content of in, consuming it.
func (b *Bulk) SetData(in *bytestream.Stream) {
	b.data.Clear()
	b.data.AppendStream(in, -1)
}

// CopyData replaces the body with the content of in, leaving in untouched.
func (b *Bulk) CopyData(in *bytestream.Stream) {
	b.data.Clear()
	b.data.AppendStreamNonDestructive(in, 0, -1)
}

func (b *Bulk) DecodeBody(in *bytestream.Stream) error {
	b.data.AppendStream(in, -1)
	return nil
}

func (b *Bulk) EncodeBody(out *bytestream.Stream) error {
	out.AppendStreamNonDestructive(b.data, 0, -1)
	return nil
}

func (b *Bulk) Equal(other Event) bool {
	o, ok := other.(interface{ Data() *bytestream.Stream })
	return ok && other.Type() == b.Type() && b.data.Equal(o.Data())
}

func (b *Bulk) String() string {
	return eventString(b, "data.size: %d", b.data.Size())
}

// uint32Body is the body of the events carrying a single 32 bit value.
type uint32Body struct {
	eventHeader
	value uint32
}

func (e *uint32Body) DecodeBody(in *bytestream.Stream) error {
	if in.Size() < 4 {
		return status.NoData
	}
	e.value = uint32(bytestream.ReadInt32(in, bigEndian))
	return nil
}

func (e *uint32Body) EncodeBody(out *bytestream.Stream) error {
	bytestream.WriteInt32(out, int32(e.value), bigEndian)
	return nil
}

func (e *uint32Body) equal(other Event, value uint32) bool {
	return other.Type() == e.Type() && value == e.value
}

// ChunkSize announces the chunk size the sender uses from now on.
type ChunkSize struct {
	uint32Body
}

func NewChunkSize(h Header, size uint32) *ChunkSize {
	return &ChunkSize{uint32Body{headerFor(h, EventChunkSize), size}}
}

func (e *ChunkSize) ChunkSize() uint32 { return e.value }

func (e *ChunkSize) Equal(other Event) bool {
	o, ok := other.(*ChunkSize)
	return ok && e.equal(o, o.value)
}

func (e *ChunkSize) String() string {
	return eventString(e, "chunk_size: %d", e.value)
}

// BytesRead acknowledges the number of bytes received so far.
type BytesRead struct {
	uint32Body
}

func NewBytesRead(h Header, bytes uint32) *BytesRead {
	return &BytesRead{uint32Body{headerFor(h, EventBytesRead), bytes}}
}

func (e *BytesRead) BytesRead() uint32 { return e.value }

func (e *BytesRead) Equal(other Event) bool {
	o, ok := other.(*BytesRead)
	return ok && e.equal(o, o.value)
}

func (e *BytesRead) String() string {
	return eventString(e, "bytes_read: %d", e.value)
}

// ServerBW is the window acknowledgement size.
type ServerBW struct {
	uint32Body
}

func NewServerBW(h Header, bandwidth uint32) *ServerBW {
	return &ServerBW{uint32Body{headerFor(h, EventServerBW), bandwidth}}
}

func (e *ServerBW) Bandwidth() uint32 { return e.value }

func (e *ServerBW) Equal(other Event) bool {
	o, ok := other.(*ServerBW)
	return ok && e.equal(o, o.value)
}

func (e *ServerBW) String() string {
	return eventString(e, "bandwidth: %d", e.value)
}

// ClientBW is the peer bandwidth, followed by a limit type.
type ClientBW struct {
	eventHeader
	Bandwidth uint32
	LimitType uint8
}

func NewClientBW(h Header, bandwidth uint32, limitType uint8) *ClientBW {
	return &ClientBW{headerFor(h, EventClientBW), bandwidth, limitType}
}

func (e *ClientBW) DecodeBody(in *bytestream.Stream) error {
	if in.Size() < 5 {
		return status.NoData
	}
	e.Bandwidth = uint32(bytestream.ReadInt32(in, bigEndian))
	e.LimitType = bytestream.ReadUint8(in)
	return nil
}

func (e *ClientBW) EncodeBody(out *bytestream.Stream) error {
	bytestream.WriteInt32(out, int32(e.Bandwidth), bigEndian)
	bytestream.WriteUint8(out, e.LimitType)
	return nil
}

func (e *ClientBW) Equal(other Event) bool {
	o, ok := other.(*ClientBW)
	return ok && o.Bandwidth == e.Bandwidth && o.LimitType == e.LimitType
}

func (e *ClientBW) String() string {
	return eventString(e, "bandwidth: %d, limit_type: %d", e.Bandwidth, e.LimitType)
}

// PingType is the user control event carried by a Ping.
type PingType int16

const (
	PingStreamClear       PingType = 0
	PingStreamClearBuffer PingType = 1
	PingClientBuffer      PingType = 3
	PingStreamReset       PingType = 4
	PingClient            PingType = 6
	PongServer            PingType = 7
	PingSWFVerifyRequest  PingType = 26
	PingSWFVerifyResponse PingType = 27
)

var pingTypeNames = map[PingType]string{
	PingStreamClear:       "STREAM_CLEAR",
	PingStreamClearBuffer: "STREAM_CLEAR_BUFFER",
	PingClientBuffer:      "CLIENT_BUFFER",
	PingStreamReset:       "STREAM_RESET",
	PingClient:            "PING_CLIENT",
	PongServer:            "PONG_SERVER",
	PingSWFVerifyRequest:  "SWF_VERIFY_REQUEST",
	PingSWFVerifyResponse: "SWF_VERIFY_RESPONSE",
}

func (t PingType) Valid() bool {
	_, ok := pingTypeNames[t]
	return ok
}

func (t PingType) String() string {
	if n, ok := pingTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("PING_UNKNOWN(%d)", int16(t))
}

// Ping is a user control message. Value2 is always present; Value3 to
// Value5 are optional and -1 when absent.
type Ping struct {
	eventHeader
	PingType PingType
	Value2   int32
	Value3   int32
	Value4   int32
	Value5   int32
}

func NewPing(h Header, t PingType, value2, value3, value4, value5 int32) *Ping {
	return &Ping{
		eventHeader: headerFor(h, EventPing),
		PingType:    t,
		Value2:      value2,
		Value3:      value3,
		Value4:      value4,
		Value5:      value5,
	}
}

func (e *Ping) DecodeBody(in *bytestream.Stream) error {
	if in.Size() < 6 {
		return status.NoData
	}
	e.PingType = PingType(bytestream.ReadInt16(in, bigEndian))
	e.Value2 = bytestream.ReadInt32(in, bigEndian)
	e.Value3, e.Value4, e.Value5 = -1, -1, -1
	if in.Size() >= 4 {
		e.Value3 = bytestream.ReadInt32(in, bigEndian)
		if in.Size() >= 4 {
			e.Value4 = bytestream.ReadInt32(in, bigEndian)
			if in.Size() >= 4 {
				e.Value5 = bytestream.ReadInt32(in, bigEndian)
			}
		}
	}
	return nil
}

func (e *Ping) EncodeBody(out *bytestream.Stream) error {
	bytestream.WriteInt16(out, int16(e.PingType), bigEndian)
	bytestream.WriteInt32(out, e.Value2, bigEndian)
	if e.Value3 != -1 {
		bytestream.WriteInt32(out, e.Value3, bigEndian)
		if e.Value4 != -1 {
			bytestream.WriteInt32(out, e.Value4, bigEndian)
			if e.Value5 != -1 {
				bytestream.WriteInt32(out, e.Value5, bigEndian)
			}
		}
	}
	return nil
}

func (e *Ping) Equal(other Event) bool {
	o, ok := other.(*Ping)
	return ok && o.PingType == e.PingType && o.Value2 == e.Value2 &&
		o.Value3 == e.Value3 && o.Value4 == e.Value4 && o.Value5 == e.Value5
}

func (e *Ping) String() string {
	return eventString(e, "ping_type: %s, value2: %d, value3: %d, value4: %d, value5: %d",
		e.PingType, e.Value2, e.Value3, e.Value4, e.Value5)
}

// FlexMessage is a leading byte followed by AMF0 values.
type FlexMessage struct {
	eventHeader
	Unknown uint8
	Values  []amf0.Value
}

func NewFlexMessage(h Header, unknown uint8, values ...amf0.Value) *FlexMessage {
	return &FlexMessage{eventHeader: headerFor(h, EventFlexMessage), Unknown: unknown, Values: values}
}

func (e *FlexMessage) DecodeBody(in *bytestream.Stream) error {
	if in.Size() < 1 {
		return status.NoData
	}
	e.Values = nil
	e.Unknown = bytestream.ReadUint8(in)
	for !in.IsEmpty() {
		v, err := amf0.ReadNext(in)
		if err != nil {
			return err
		}
		e.Values = append(e.Values, v)
	}
	return nil
}

func (e *FlexMessage) EncodeBody(out *bytestream.Stream) error {
	bytestream.WriteUint8(out, e.Unknown)
	amf0.WriteAll(out, e.Values...)
	return nil
}

func (e *FlexMessage) Equal(other Event) bool {
	o, ok := other.(*FlexMessage)
	return ok && o.Unknown == e.Unknown && valuesEqual(o.Values, e.Values)
}

func (e *FlexMessage) String() string {
	return eventString(e, "unknown: %d%s", e.Unknown, valuesString(e.Values))
}

func valuesEqual(a, b []amf0.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func valuesString(values []amf0.Value) string {
	var sb strings.Builder
	for i, v := range values {
		fmt.Fprintf(&sb, "\n%5d: %v", i, v)
	}
	return sb.String()
}
