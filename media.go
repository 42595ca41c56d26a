package rtmp

import (
	"github.com/pkg/errors"

	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/flv"
	"github.com/torresjeff/go-rtmp/tag"
)

// AudioData carries one FLV audio tag body.
type AudioData struct {
	Bulk
}

func NewAudioData(h Header, data *bytestream.Stream) *AudioData {
	return &AudioData{*NewBulk(h, EventAudioData, data)}
}

// DecodeTag returns the body as an FLV tag with timestamp ts, or nil when
// the event is empty. The event data is left untouched.
func (e *AudioData) DecodeTag(ts int64) (*flv.Tag, error) {
	return decodeMediaTag(e.data, flv.FrameAudio, ts)
}

// VideoData carries one FLV video tag body.
type VideoData struct {
	Bulk
}

func NewVideoData(h Header, data *bytestream.Stream) *VideoData {
	return &VideoData{*NewBulk(h, EventVideoData, data)}
}

// DecodeTag returns the body as an FLV tag with timestamp ts, or nil when
// the event is empty. The event data is left untouched.
func (e *VideoData) DecodeTag(ts int64) (*flv.Tag, error) {
	return decodeMediaTag(e.data, flv.FrameVideo, ts)
}

func decodeMediaTag(data *bytestream.Stream, ft flv.FrameType, ts int64) (*flv.Tag, error) {
	if data.IsEmpty() {
		return nil, nil
	}
	body := flv.NewBody(ft)
	in := bytestream.New(bytestream.DefaultBlockSize)
	in.AppendStreamNonDestructive(data, 0, -1)
	if err := body.Decode(in, in.Size()); err != nil {
		return nil, errors.Wrapf(err, "rtmp: failed to decode %s tag", ft)
	}
	t := flv.NewTag(0, tag.DefaultFlavourMask, ts, body)
	t.LearnAttributes()
	return t, nil
}

// MediaData is an aggregate message: a sequence of FLV tags, each followed
// by its size, with timestamps relative to the first one.
type MediaData struct {
	Bulk
	firstTagTs  int64
	prevTagSize uint32
	// Duration is the timestamp of the last added tag relative to the first.
	Duration int64
}

func NewMediaData(h Header) *MediaData {
	return &MediaData{Bulk: *NewBulk(h, EventMediaData, nil), firstTagTs: -1}
}

// AddTag appends t with timestamp ts to the body. Call Finalize after the
// last tag.
func (e *MediaData) AddTag(t *flv.Tag, ts int64) {
	if e.firstTagTs == -1 {
		e.firstTagTs = ts
	}
	rel := ts - e.firstTagTs
	if e.prevTagSize > 0 {
		bytestream.WriteUint32(e.data, e.prevTagSize, bigEndian)
	}
	before := e.data.Size()
	bytestream.WriteUint8(e.data, uint8(t.FrameType()))
	bytestream.WriteUint24(e.data, uint32(t.Size()), bigEndian)
	bytestream.WriteUint24(e.data, uint32(rel)&0xFFFFFF, bigEndian)
	bytestream.WriteUint8(e.data, uint8(rel>>24))
	bytestream.WriteUint24(e.data, t.StreamID, bigEndian)
	t.Body().Encode(e.data)

	e.Duration = ts - e.firstTagTs
	e.prevTagSize = uint32(e.data.Size() - before)
}

// Finalize writes the size of the last tag.
func (e *MediaData) Finalize() {
	bytestream.WriteUint32(e.data, 0, bigEndian)
}

// FirstTagTimestamp returns the timestamp of the first added tag, or -1.
func (e *MediaData) FirstTagTimestamp() int64 {
	return e.firstTagTs
}

// Tags decodes the tags in the body, offsetting their timestamps by ts.
// Decoding stops at the first malformed tag; the tags decoded so far are
// returned with the error. The event data is left untouched.
func (e *MediaData) Tags(ts int64) ([]*flv.Tag, error) {
	in := bytestream.New(bytestream.DefaultBlockSize)
	in.AppendStreamNonDestructive(e.data, 0, -1)

	var tags []*flv.Tag
	for in.Size() > 11 {
		ft := flv.FrameType(bytestream.ReadUint8(in))
		size := int(bytestream.ReadUint24(in, bigEndian))
		low := bytestream.ReadUint24(in, bigEndian)
		high := uint32(bytestream.ReadUint8(in))
		streamID := bytestream.ReadUint24(in, bigEndian)
		if !ft.Valid() {
			return tags, errors.Errorf("rtmp: invalid tag type 0x%02x in media data", uint8(ft))
		}
		body := flv.NewBody(ft)
		if err := body.Decode(in, size); err != nil {
			return tags, errors.Wrapf(err, "rtmp: failed to decode %s tag in media data", ft)
		}
		in.Skip(4)

		t := flv.NewTag(0, tag.DefaultFlavourMask, ts+int64(low|high<<24), body)
		t.StreamID = streamID
		t.LearnAttributes()
		tags = append(tags, t)
	}
	return tags, nil
}
