package rtmp

import (
	"fmt"

	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/status"
)

// Event is a complete RTMP message, reassembled from one or more chunks.
type Event interface {
	// Header returns the header the event is sent or was received with. It
	// can be modified in place before encoding.
	Header() *Header
	Type() EventType
	// DecodeBody reads the event payload from in, which holds exactly the
	// body announced by the header.
	DecodeBody(in *bytestream.Stream) error
	EncodeBody(out *bytestream.Stream) error
	// Equal compares the event type and payload. Headers are not compared.
	Equal(other Event) bool
	String() string
}

// eventHeader is embedded by every event type.
type eventHeader struct {
	header Header
}

func (e *eventHeader) Header() *Header {
	return &e.header
}

func (e *eventHeader) Type() EventType {
	return e.header.EventType
}

func headerFor(h Header, t EventType) eventHeader {
	h.EventType = t
	return eventHeader{header: h}
}

// CreateEvent returns an empty event matching h.EventType, ready for
// DecodeBody.
func CreateEvent(h Header) (Event, error) {
	switch h.EventType {
	case EventChunkSize:
		return NewChunkSize(h, 0), nil
	case EventBytesRead:
		return NewBytesRead(h, 0), nil
	case EventPing:
		return NewPing(h, PingStreamClear, -1, -1, -1, -1), nil
	case EventServerBW:
		return NewServerBW(h, 0), nil
	case EventClientBW:
		return NewClientBW(h, 0, 0), nil
	case EventAudioData:
		return NewAudioData(h, nil), nil
	case EventVideoData:
		return NewVideoData(h, nil), nil
	case EventFlexSharedObject, EventSharedObject:
		return NewBulk(h, h.EventType, nil), nil
	case EventFlexMessage:
		return NewFlexMessage(h, 0), nil
	case EventNotify:
		return NewNotify(h, ""), nil
	case EventInvoke:
		return NewInvoke(h, nil), nil
	case EventMediaData:
		return NewMediaData(h), nil
	}
	return nil, status.Errorf(status.CorruptedData, "rtmp: cannot create event of type %s", h.EventType)
}

// EncodeBody returns the serialized body of ev.
func EncodeBody(ev Event) (*bytestream.Stream, error) {
	out := bytestream.New(bytestream.DefaultBlockSize)
	if err := ev.EncodeBody(out); err != nil {
		return nil, err
	}
	return out, nil
}

func eventString(ev Event, format string, args ...interface{}) string {
	return fmt.Sprintf("%s %s ", ev.Header(), ev.Type()) + fmt.Sprintf(format, args...)
}
