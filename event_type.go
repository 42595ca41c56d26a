package rtmp

// EventType is the message type id carried by every RTMP chunk header.
type EventType uint8

const (
	EventChunkSize        EventType = 0x01
	EventBytesRead        EventType = 0x03
	EventPing             EventType = 0x04
	EventServerBW         EventType = 0x05
	EventClientBW         EventType = 0x06
	EventAudioData        EventType = 0x08
	EventVideoData        EventType = 0x09
	EventFlexSharedObject EventType = 0x10
	EventFlexMessage      EventType = 0x11
	EventNotify           EventType = 0x12
	EventSharedObject     EventType = 0x13
	EventInvoke           EventType = 0x14
	EventMediaData        EventType = 0x16
	EventInvalid          EventType = 0xFF
)

var eventTypeNames = map[EventType]string{
	EventChunkSize:        "EVENT_CHUNK_SIZE",
	EventBytesRead:        "EVENT_BYTES_READ",
	EventPing:             "EVENT_PING",
	EventServerBW:         "EVENT_SERVER_BANDWIDTH",
	EventClientBW:         "EVENT_CLIENT_BANDWIDTH",
	EventAudioData:        "EVENT_AUDIO_DATA",
	EventVideoData:        "EVENT_VIDEO_DATA",
	EventFlexSharedObject: "EVENT_FLEX_SHARED_OBJECT",
	EventFlexMessage:      "EVENT_FLEX_MESSAGE",
	EventNotify:           "EVENT_NOTIFY",
	EventSharedObject:     "EVENT_SHARED_OBJECT",
	EventInvoke:           "EVENT_INVOKE",
	EventMediaData:        "EVENT_MEDIA_DATA",
}

// Valid reports whether t is one of the event types this package can decode.
// EventInvalid is not valid.
func (t EventType) Valid() bool {
	_, ok := eventTypeNames[t]
	return ok
}

func (t EventType) String() string {
	if n, ok := eventTypeNames[t]; ok {
		return n
	}
	if t == EventInvalid {
		return "EVENT_INVALID"
	}
	return "EVENT_UNKNOWN"
}

// EventSubtype groups event types by what they are used for.
type EventSubtype uint8

const (
	SubtypeSystem EventSubtype = iota
	SubtypeStreamControl
	SubtypeStreamData
	SubtypeServiceCall
)

func (s EventSubtype) String() string {
	switch s {
	case SubtypeSystem:
		return "SUBTYPE_SYSTEM"
	case SubtypeStreamControl:
		return "SUBTYPE_STREAM_CONTROL"
	case SubtypeStreamData:
		return "SUBTYPE_STREAM_DATA"
	case SubtypeServiceCall:
		return "SUBTYPE_SERVICE_CALL"
	}
	return "SUBTYPE_UNKNOWN"
}

func (t EventType) Subtype() EventSubtype {
	switch t {
	case EventBytesRead, EventPing, EventServerBW, EventClientBW:
		return SubtypeStreamControl
	case EventAudioData, EventVideoData, EventMediaData:
		return SubtypeStreamData
	case EventFlexMessage, EventNotify, EventInvoke:
		return SubtypeServiceCall
	}
	return SubtypeSystem
}
