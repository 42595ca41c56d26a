package flv

import (
	"bytes"
	"testing"

	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/tag"
)

func TestADTSWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewADTSWriter(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	newAudio := func(body []byte) *Tag {
		return NewTag(tag.AttrAudio, tag.DefaultFlavourMask, 0, NewAudio(bytestream.NewFromBytes(body)))
	}
	tags := []*Tag{
		newAudio(aacRawFrame),
		newAudio([]byte{0x2F, 0xFF, 0xFB}),
		NewTag(tag.AttrVideo, tag.DefaultFlavourMask, 0, NewVideo(bytestream.NewFromBytes(avcInterFrame))),
		newAudio(aacSequenceHeader),
		newAudio(aacRawFrame),
	}
	for _, tg := range tags {
		if err := w.WriteTag(tg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// AAC LC, 44.1kHz, stereo, 10 bytes frame
	want := []byte{0xFF, 0xF1, 0x50, 0x80, 0x01, 0x40, 0xFC, 0x21, 0x22, 0x23}
	if got := buf.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
	if w.Frames != 1 {
		t.Errorf("got %v, want %v", w.Frames, 1)
	}
}
