package flv

import (
	"io"

	oryxaac "github.com/ossrs/go-oryx-lib/aac"
	oryxflv "github.com/ossrs/go-oryx-lib/flv"
	"github.com/pkg/errors"

	"github.com/torresjeff/go-rtmp/audio"
)

// ADTSWriter turns the AAC audio tags of an FLV stream into an ADTS
// elementary stream. Frames seen before the first sequence header are
// dropped.
type ADTSWriter struct {
	w      io.Writer
	codec  oryxflv.AAC
	adts   oryxaac.ADTS
	hasASC bool

	Frames int
}

func NewADTSWriter(w io.Writer) (*ADTSWriter, error) {
	codec, err := oryxflv.NewAAC()
	if err != nil {
		return nil, errors.Wrap(err, "flv: create aac codec")
	}
	adts, err := oryxaac.NewADTS()
	if err != nil {
		return nil, errors.Wrap(err, "flv: create adts muxer")
	}
	return &ADTSWriter{w: w, codec: codec, adts: adts}, nil
}

// WriteTag writes t when it carries an AAC frame. Other tags are ignored.
func (a *ADTSWriter) WriteTag(t *Tag) error {
	body := t.AudioBody()
	if body == nil || body.Flags.Format != audio.AAC {
		return nil
	}
	format, _, _, _, trait, frame, err := a.codec.Decode(body.data.Bytes())
	if err != nil {
		return errors.Wrap(err, "flv: decode aac tag")
	}
	if format != oryxflv.AudioCodecAAC {
		return nil
	}
	if trait == oryxflv.AACFrameTraitSequenceHeader {
		if err := a.adts.SetASC(frame); err != nil {
			return errors.Wrap(err, "flv: bad AudioSpecificConfig")
		}
		a.hasASC = true
		return nil
	}
	if !a.hasASC || len(frame) == 0 {
		return nil
	}
	b, err := a.adts.Encode(frame)
	if err != nil {
		return errors.Wrap(err, "flv: encode adts frame")
	}
	if _, err := a.w.Write(b); err != nil {
		return errors.Wrap(err, "flv: write adts frame")
	}
	a.Frames++
	return nil
}
