package flv

import (
	"fmt"

	"github.com/torresjeff/go-rtmp/amf/amf0"
	"github.com/torresjeff/go-rtmp/audio"
	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/internal/binary24"
	"github.com/torresjeff/go-rtmp/status"
	"github.com/torresjeff/go-rtmp/tag"
	"github.com/torresjeff/go-rtmp/video"
)

// Body is the type specific part of a Tag.
type Body interface {
	FrameType() FrameType
	Size() int
	Encode(out *bytestream.Stream)
	// Decode consumes exactly size bytes of in. It returns status.NoData,
	// consuming nothing, when in holds less than size bytes.
	Decode(in *bytestream.Stream, size int) error
	String() string
}

// NewBody returns an empty body for t, or nil when t is not a valid type.
func NewBody(t FrameType) Body {
	switch t {
	case FrameAudio:
		return NewAudio(nil)
	case FrameVideo:
		return NewVideo(nil)
	case FrameMetadata:
		return NewMetadata("", nil)
	}
	return nil
}

// Audio is the body of an audio tag: one flags byte and the codec payload.
type Audio struct {
	data  *bytestream.Stream
	Flags audio.Flags
	// IsAACHeader is set for the AAC sequence header (AudioSpecificConfig).
	IsAACHeader bool
}

// NewAudio returns an audio body over data, which is shared.
func NewAudio(data *bytestream.Stream) *Audio {
	a := &Audio{data: data}
	if a.data == nil {
		a.data = bytestream.New(bytestream.DefaultBlockSize)
	}
	a.decodeFlags()
	return a
}

func (*Audio) FrameType() FrameType       { return FrameAudio }
func (a *Audio) Size() int                { return a.data.Size() }
func (a *Audio) Data() *bytestream.Stream { return a.data }
func (a *Audio) Encode(out *bytestream.Stream) {
	out.AppendStreamNonDestructive(a.data, 0, -1)
}

func (a *Audio) Decode(in *bytestream.Stream, size int) error {
	if in.Size() < size {
		return status.NoData
	}
	a.data = bytestream.New(bytestream.DefaultBlockSize)
	a.data.AppendStream(in, size)
	return a.decodeFlags()
}

func (a *Audio) decodeFlags() error {
	var b [2]byte
	n := a.data.Peek(b[:])
	if n < 1 {
		return status.NoData
	}
	a.Flags = audio.ParseFlags(b[0])
	a.IsAACHeader = false
	if a.Flags.Format == audio.AAC {
		if n < 2 {
			return status.NoData
		}
		a.IsAACHeader = audio.AACPacketType(b[1]) == audio.AACSequenceHeader
	}
	return nil
}

func (a *Audio) String() string {
	return fmt.Sprintf("Audio{data: %d bytes, flags: %s, is_aac_header: %v}", a.data.Size(), a.Flags, a.IsAACHeader)
}

// Video is the body of a video tag. AVC bodies carry a packet type and a
// composition time offset after the flags byte.
type Video struct {
	data            *bytestream.Stream
	VideoFrameType  video.FrameType
	Codec           video.Codec
	AVCPacketType   video.AVCPacketType
	CompositionTime int32
	// Moov is the decoder configuration some encoders embed at the start of
	// key frames, see DecodeAuxiliaryMoovTag.
	Moov *Tag
}

func NewVideo(data *bytestream.Stream) *Video {
	v := &Video{data: data}
	if v.data == nil {
		v.data = bytestream.New(bytestream.DefaultBlockSize)
	}
	v.decodeFlags()
	return v
}

func (*Video) FrameType() FrameType       { return FrameVideo }
func (v *Video) Size() int                { return v.data.Size() }
func (v *Video) Data() *bytestream.Stream { return v.data }
func (v *Video) Encode(out *bytestream.Stream) {
	out.AppendStreamNonDestructive(v.data, 0, -1)
}

func (v *Video) Decode(in *bytestream.Stream, size int) error {
	if in.Size() < size {
		return status.NoData
	}
	v.data = bytestream.New(bytestream.DefaultBlockSize)
	v.data.AppendStream(in, size)
	return v.decodeFlags()
}

func (v *Video) decodeFlags() error {
	var b [5]byte
	n := v.data.Peek(b[:])
	if n < 1 {
		return status.NoData
	}
	v.VideoFrameType, v.Codec = video.ParseFlags(b[0])
	if v.Codec == video.H264 {
		if n < 5 {
			return status.NoData
		}
		v.AVCPacketType = video.AVCPacketType(b[1])
		v.CompositionTime = binary24.Int24(bigEndian.Uint24(b[2:5]))
	}
	return nil
}

func (v *Video) String() string {
	more := ""
	if v.Codec == video.H264 {
		more = fmt.Sprintf(", avc_packet_type: %s, avc_composition_offset_ms: %d, avc_moov: %v",
			v.AVCPacketType, v.CompositionTime, v.Moov != nil)
	}
	return fmt.Sprintf("Video{data: %d bytes, codec: %s, frame_type: %s%s}", v.data.Size(), v.Codec, v.VideoFrameType, more)
}

// Metadata is the body of a script data tag: a name such as "onMetaData"
// followed by one AMF0 value, usually an ECMA array.
type Metadata struct {
	Name   string
	Values amf0.Value
}

// NewMetadata returns a metadata body. nil values means an empty ECMA array.
func NewMetadata(name string, values amf0.Value) *Metadata {
	if values == nil {
		values = amf0.NewECMAArray()
	}
	return &Metadata{Name: name, Values: values}
}

func (*Metadata) FrameType() FrameType { return FrameMetadata }

func (m *Metadata) Size() int {
	return amf0.String(m.Name).Size() + m.Values.Size()
}

func (m *Metadata) Encode(out *bytestream.Stream) {
	amf0.WriteString(out, m.Name)
	m.Values.Encode(out)
}

func (m *Metadata) Decode(in *bytestream.Stream, size int) error {
	if in.Size() < size {
		return status.NoData
	}
	body := bytestream.New(bytestream.DefaultBlockSize)
	body.AppendStream(in, size)
	name, err := amf0.ReadString(body)
	if err != nil {
		return status.Errorf(status.CorruptedFail, "flv: failed to decode metadata name: %v", err)
	}
	values, err := amf0.ReadNext(body)
	if err != nil {
		return status.Errorf(status.CorruptedFail, "flv: failed to decode metadata values: %v", err)
	}
	m.Name, m.Values = name, values
	return nil
}

// propertyMap is implemented by *amf0.Object and *amf0.ECMAArray.
type propertyMap interface {
	Get(key string) amf0.Value
	Set(key string, v amf0.Value)
	Delete(key string) bool
	Properties() []amf0.Property
}

// Get returns the value of key when the values are an object or an ECMA array.
func (m *Metadata) Get(key string) amf0.Value {
	if p, ok := m.Values.(propertyMap); ok {
		return p.Get(key)
	}
	return nil
}

func (m *Metadata) Number(key string) (float64, bool) {
	n, ok := m.Get(key).(amf0.Number)
	return float64(n), ok
}

func (m *Metadata) Delete(key string) bool {
	if p, ok := m.Values.(propertyMap); ok {
		return p.Delete(key)
	}
	return false
}

func (m *Metadata) String() string {
	return fmt.Sprintf("Metadata{name: [%s], values: %v}", m.Name, m.Values)
}

// Tag is one FLV tag.
type Tag struct {
	tag.Base
	StreamID        uint32
	PreviousTagSize uint32
	body            Body
}

func NewTag(attributes tag.Attributes, flavourMask uint32, ts int64, body Body) *Tag {
	return &Tag{Base: tag.NewBase(attributes, flavourMask, ts), body: body}
}

func (*Tag) Type() tag.Type         { return tag.TypeFLV }
func (t *Tag) Body() Body           { return t.body }
func (t *Tag) FrameType() FrameType { return t.body.FrameType() }
func (t *Tag) Size() int            { return t.body.Size() }

func (t *Tag) AudioBody() *Audio {
	a, _ := t.body.(*Audio)
	return a
}

func (t *Tag) VideoBody() *Video {
	v, _ := t.body.(*Video)
	return v
}

func (t *Tag) MetadataBody() *Metadata {
	m, _ := t.body.(*Metadata)
	return m
}

// Data returns the payload of audio and video tags.
func (t *Tag) Data() *bytestream.Stream {
	switch b := t.body.(type) {
	case *Audio:
		return b.data
	case *Video:
		return b.data
	}
	return nil
}

// Clone shares the body with t.
func (t *Tag) Clone(ts int64) tag.Tag {
	c := *t
	c.Base = t.CloneAt(ts)
	return &c
}

// LearnAttributes sets the tag attributes from the body flags.
func (t *Tag) LearnAttributes() {
	switch b := t.body.(type) {
	case *Video:
		t.AddAttributes(tag.AttrVideo)
		if b.VideoFrameType == video.KeyFrame {
			t.AddAttributes(tag.AttrCanResync)
		}
		if b.Codec == video.H264 {
			b.Moov = DecodeAuxiliaryMoovTag(t)
			if b.AVCPacketType != video.AVCSequenceHeader {
				t.AddAttributes(tag.AttrDroppable)
			}
		} else {
			t.AddAttributes(tag.AttrDroppable)
		}
	case *Audio:
		t.AddAttributes(tag.AttrAudio | tag.AttrCanResync)
		if b.Flags.Format != audio.AAC || !b.IsAACHeader {
			t.AddAttributes(tag.AttrDroppable)
		}
	case *Metadata:
		t.AddAttributes(tag.AttrMetadata)
	}
}

func (t *Tag) String() string {
	return fmt.Sprintf("FlvTag{%s, stream_id: %d, previous_tag_size: %d, body: %s}",
		t.Base.String(), t.StreamID, t.PreviousTagSize, t.body)
}
