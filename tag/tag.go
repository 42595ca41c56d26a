// Package tag defines the container independent media unit produced by the
// splitters and consumed by the serializers.
package tag

import (
	"fmt"
	"strings"

	"github.com/torresjeff/go-rtmp/bytestream"
)

type Type uint8

const (
	TypeFLVHeader Type = iota
	TypeFLV
	TypeBOS
	TypeEOS
	TypeCuePoints
	TypeRaw
)

func (t Type) String() string {
	switch t {
	case TypeFLVHeader:
		return "TYPE_FLV_HEADER"
	case TypeFLV:
		return "TYPE_FLV"
	case TypeBOS:
		return "TYPE_BOS"
	case TypeEOS:
		return "TYPE_EOS"
	case TypeCuePoints:
		return "TYPE_CUE_POINTS"
	case TypeRaw:
		return "TYPE_RAW"
	}
	return "TYPE_UNKNOWN"
}

// Attributes describe what a tag carries and how it can be handled.
type Attributes uint32

const (
	AttrMetadata Attributes = 0x01
	AttrAudio    Attributes = 0x02
	AttrVideo    Attributes = 0x04
	// AttrDroppable tags can be dropped under pressure without breaking the
	// decoder on the other side.
	AttrDroppable Attributes = 0x08
	// AttrCanResync tags are safe points to start decoding from.
	AttrCanResync Attributes = 0x10
)

var attributeNames = []struct {
	a    Attributes
	name string
}{
	{AttrMetadata, "METADATA"},
	{AttrAudio, "AUDIO"},
	{AttrVideo, "VIDEO"},
	{AttrDroppable, "DROPPABLE"},
	{AttrCanResync, "CAN_RESYNC"},
}

func (a Attributes) String() string {
	var names []string
	for _, n := range attributeNames {
		if a&n.a != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "NONE"
	}
	return strings.Join(names, "|")
}

// DefaultFlavourMask selects the first flavour only.
const DefaultFlavourMask uint32 = 0x00000001

// Tag is a media frame or a signal travelling through a stream.
type Tag interface {
	Type() Type
	Attributes() Attributes
	FlavourMask() uint32
	// Timestamp is in milliseconds.
	Timestamp() int64
	// Size is the number of payload bytes.
	Size() int
	// Data returns the payload of audio and video tags, nil otherwise.
	Data() *bytestream.Stream
	// Clone returns a copy with timestamp ts, sharing the payload. A negative
	// ts keeps the current timestamp.
	Clone(ts int64) Tag
	String() string
}

// Base implements the bookkeeping part of Tag.
type Base struct {
	attributes  Attributes
	flavourMask uint32
	timestamp   int64
}

func NewBase(attributes Attributes, flavourMask uint32, timestamp int64) Base {
	return Base{attributes: attributes, flavourMask: flavourMask, timestamp: timestamp}
}

func (b *Base) Attributes() Attributes        { return b.attributes }
func (b *Base) AddAttributes(a Attributes)    { b.attributes |= a }
func (b *Base) RemoveAttributes(a Attributes) { b.attributes &^= a }
func (b *Base) FlavourMask() uint32           { return b.flavourMask }
func (b *Base) Timestamp() int64              { return b.timestamp }
func (b *Base) SetTimestamp(ts int64)         { b.timestamp = ts }

func (b *Base) IsAudio() bool     { return b.attributes&AttrAudio != 0 }
func (b *Base) IsVideo() bool     { return b.attributes&AttrVideo != 0 }
func (b *Base) IsMetadata() bool  { return b.attributes&AttrMetadata != 0 }
func (b *Base) IsDroppable() bool { return b.attributes&AttrDroppable != 0 }
func (b *Base) CanResync() bool   { return b.attributes&AttrCanResync != 0 }

// CloneAt returns a copy of b with timestamp ts, or the same timestamp when ts < 0.
func (b Base) CloneAt(ts int64) Base {
	if ts >= 0 {
		b.timestamp = ts
	}
	return b
}

func (b *Base) String() string {
	return fmt.Sprintf("ts: %d, attributes: %s, flavour_mask: 0x%08x", b.timestamp, b.attributes, b.flavourMask)
}

// Is reports whether t carries any of the attributes in a.
func Is(t Tag, a Attributes) bool {
	return t.Attributes()&a != 0
}
