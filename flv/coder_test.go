package flv

import (
	"encoding/binary"
	"testing"

	"github.com/torresjeff/go-rtmp/amf/amf0"
	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/status"
	"github.com/torresjeff/go-rtmp/tag"
)

func tagBytes(prev uint32, ft FrameType, ts uint32, body []byte) []byte {
	n := len(body)
	b := make([]byte, 0, TagHeaderSize+n)
	b = append(b, byte(prev>>24), byte(prev>>16), byte(prev>>8), byte(prev))
	b = append(b, byte(ft), byte(n>>16), byte(n>>8), byte(n))
	b = append(b, byte(ts>>16), byte(ts>>8), byte(ts), byte(ts>>24))
	b = append(b, 0, 0, 0)
	return append(b, body...)
}

func metadataBody(name string, values amf0.Value) []byte {
	out := bytestream.New(0)
	NewMetadata(name, values).Encode(out)
	return out.Bytes()
}

func TestDecodeHeader(t *testing.T) {
	raw := []byte{'F', 'L', 'V', 0x01, 0x05, 0x00, 0x00, 0x00, 0x09}

	in := bytestream.NewFromBytes(raw[:8])
	if !IsHeader(in) {
		t.Errorf("got %v, want %v", false, true)
	}
	if _, err := DecodeHeader(in); err != status.NoData {
		t.Fatalf("got %v, want %v", err, status.NoData)
	}
	if in.Size() != 8 {
		t.Errorf("got %v, want %v", in.Size(), 8)
	}

	in.Write(raw[8:])
	h, err := DecodeHeader(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Version != 1 || !h.HasAudio() || !h.HasVideo() || h.DataOffset != HeaderSize {
		t.Errorf("got %v, want version 1 with audio and video", h)
	}
	if in.Size() != 0 {
		t.Errorf("got %v, want %v", in.Size(), 0)
	}

	out := bytestream.New(0)
	NewHeader(true, true).Encode(out)
	if got := out.Bytes(); string(got) != string(raw) {
		t.Errorf("got %x, want %x", got, raw)
	}
}

func TestIsHeader(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want bool
	}{
		{"header", []byte("FLV\x01"), true},
		{"any version", []byte("FLV\x02\x05"), true},
		{"previous tag size", []byte{0, 0, 0, 0}, false},
		{"short", []byte("FLV"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHeader(bytestream.NewFromBytes(tt.in)); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeTag(t *testing.T) {
	tests := []struct {
		name       string
		in         []byte
		maxTagSize int
		want       status.Status
		wantTs     int64
	}{
		{"audio", tagBytes(11, FrameAudio, 0x01020304, []byte{0xAF, 0x01, 0x21}), DefaultMaxTagSize, status.OK, 0x01020304},
		{"metadata", tagBytes(0, FrameMetadata, 5, metadataBody(OnMetaData, nil)), DefaultMaxTagSize, status.OK, 5},
		{"short header", tagBytes(0, FrameAudio, 0, []byte{0x2F})[:14], DefaultMaxTagSize, status.NoData, 0},
		{"short body", tagBytes(0, FrameAudio, 0, []byte{0xAF, 1, 2, 3})[:17], DefaultMaxTagSize, status.NoData, 0},
		{"oversized", tagBytes(0, FrameVideo, 0, make([]byte, 11)), 10, status.OversizedTag, 0},
		{"oversized before body", tagBytes(0, FrameVideo, 0, make([]byte, 11))[:15], 10, status.OversizedTag, 0},
		{"illegal type", tagBytes(0, FrameType(7), 0, []byte{1}), DefaultMaxTagSize, status.CorruptedFail, 0},
		{"zero size video", tagBytes(0, FrameVideo, 0, nil), DefaultMaxTagSize, status.CorruptedFail, 0},
		{"zero size audio", tagBytes(0, FrameAudio, 0, nil), DefaultMaxTagSize, status.CorruptedFail, 0},
		{"bad metadata", tagBytes(0, FrameMetadata, 0, []byte{0x02, 0x00, 0x09, 'o'}), DefaultMaxTagSize, status.CorruptedFail, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := bytestream.NewFromBytes(tt.in)
			got, err := DecodeTag(in, tt.maxTagSize)
			if s := status.Of(err); s != tt.want {
				t.Fatalf("got %v, want %v", s, tt.want)
			}
			if err != nil {
				// bad metadata is the only case where the tag was consumed
				if tt.name != "bad metadata" && in.Size() != len(tt.in) {
					t.Errorf("got %v, want %v", in.Size(), len(tt.in))
				}
				return
			}
			if in.Size() != 0 {
				t.Errorf("got %v, want %v", in.Size(), 0)
			}
			if got.Timestamp() != tt.wantTs {
				t.Errorf("got %v, want %v", got.Timestamp(), tt.wantTs)
			}
			if int(got.PreviousTagSize) != int(binary.BigEndian.Uint32(tt.in)) {
				t.Errorf("got %v, want %v", got.PreviousTagSize, binary.BigEndian.Uint32(tt.in))
			}
		})
	}
}

func TestTag_LearnAttributes(t *testing.T) {
	tests := []struct {
		name string
		ft   FrameType
		body []byte
		want tag.Attributes
	}{
		{"aac header", FrameAudio, []byte{0xAF, 0x00, 0x12, 0x10}, tag.AttrAudio | tag.AttrCanResync},
		{"aac raw", FrameAudio, []byte{0xAF, 0x01, 0x21}, tag.AttrAudio | tag.AttrCanResync | tag.AttrDroppable},
		{"mp3", FrameAudio, []byte{0x2F, 0xFF, 0xFB}, tag.AttrAudio | tag.AttrCanResync | tag.AttrDroppable},
		{"avc sequence header", FrameVideo, []byte{0x17, 0x00, 0x00, 0x00, 0x00, 0x01}, tag.AttrVideo | tag.AttrCanResync},
		{"avc inter frame", FrameVideo, []byte{0x27, 0x01, 0x00, 0x00, 0x00, 0xAA}, tag.AttrVideo | tag.AttrDroppable},
		{"avc key frame", FrameVideo, []byte{0x17, 0x01, 0x00, 0x00, 0x00, 0xAA}, tag.AttrVideo | tag.AttrCanResync | tag.AttrDroppable},
		{"h263 key frame", FrameVideo, []byte{0x12, 0x00}, tag.AttrVideo | tag.AttrCanResync | tag.AttrDroppable},
		{"metadata", FrameMetadata, metadataBody(OnMetaData, nil), tag.AttrMetadata},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeTag(bytestream.NewFromBytes(tagBytes(0, tt.ft, 0, tt.body)), DefaultMaxTagSize)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got.LearnAttributes()
			if got.Attributes() != tt.want {
				t.Errorf("got %v, want %v", got.Attributes(), tt.want)
			}
			if got.Size() != len(tt.body) {
				t.Errorf("got %v, want %v", got.Size(), len(tt.body))
			}
		})
	}
}

func TestVideo_CompositionTime(t *testing.T) {
	v := NewVideo(bytestream.NewFromBytes([]byte{0x27, 0x01, 0xFF, 0xFF, 0xFE, 0xAA}))
	if v.CompositionTime != -2 {
		t.Errorf("got %v, want %v", v.CompositionTime, -2)
	}
	v = NewVideo(bytestream.NewFromBytes([]byte{0x27, 0x01, 0x00, 0x01, 0x00}))
	if v.CompositionTime != 256 {
		t.Errorf("got %v, want %v", v.CompositionTime, 256)
	}
}

func x264Body(moovPayload, total int) []byte {
	b := make([]byte, total)
	copy(b, x264MoovBeginning)
	binary.BigEndian.PutUint32(b[len(x264MoovBeginning):], uint32(moovPayload))
	copy(b[x264MoovMarkBegin:], x264MoovMark)
	return b
}

func aflmeBody(moovPayload, total int) []byte {
	b := make([]byte, total)
	copy(b, aflmeMoovBeginning)
	binary.BigEndian.PutUint32(b[len(aflmeMoovBeginning):], uint32(moovPayload))
	copy(b[aflmeMoovSignalBegin:], aflmeMoovSignal)
	return b
}

func TestDecodeAuxiliaryMoovTag(t *testing.T) {
	interFrame := x264Body(30, 60)
	interFrame[0] = 0x27
	tests := []struct {
		name     string
		body     []byte
		wantSize int
	}{
		{"x264", x264Body(30, 60), 45},
		{"aflme", aflmeBody(20, 50), 29},
		{"whole body", x264Body(45, 60), 60},
		{"moov larger than body", x264Body(46, 60), -1},
		{"short body", x264Body(10, 38)[:38], -1},
		{"inter frame", interFrame, -1},
		{"no mark", x264Body(30, 60)[:35], -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := NewTag(tag.AttrVideo, tag.DefaultFlavourMask, 1234, NewVideo(bytestream.NewFromBytes(tt.body)))
			moov := DecodeAuxiliaryMoovTag(ft)
			if tt.wantSize < 0 {
				if moov != nil {
					t.Errorf("got %v, want nil", moov)
				}
				return
			}
			if moov == nil {
				t.Fatalf("got nil, want a moov of %d bytes", tt.wantSize)
			}
			if moov.Size() != tt.wantSize {
				t.Errorf("got %v, want %v", moov.Size(), tt.wantSize)
			}
			if moov.Timestamp() != ft.Timestamp() || moov.Attributes() != ft.Attributes() {
				t.Errorf("got %v, want the attributes and timestamp of %v", moov, ft)
			}
			if ft.Size() != len(tt.body) {
				t.Errorf("got %v, want %v", ft.Size(), len(tt.body))
			}
		})
	}
}

func TestTag_LearnAttributesMoov(t *testing.T) {
	ft, err := DecodeTag(bytestream.NewFromBytes(tagBytes(0, FrameVideo, 0, x264Body(30, 60))), DefaultMaxTagSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ft.LearnAttributes()
	if ft.VideoBody().Moov == nil {
		t.Fatalf("got nil, want a moov tag")
	}
	if got := ft.VideoBody().Moov.Size(); got != 45 {
		t.Errorf("got %v, want %v", got, 45)
	}
}
