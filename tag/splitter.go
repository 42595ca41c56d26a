package tag

import (
	"fmt"

	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/status"
)

// Splitter cuts a byte stream into tags, one container format per
// implementation.
//
// GetNextTagInternal never blocks. It returns status.NoData when in does not
// hold a complete unit yet, leaving in as it was, and status.Skip when it
// consumed input or changed state without producing a tag. Any other error
// is fatal for the stream.
type Splitter interface {
	GetNextTagInternal(in *bytestream.Stream, eos bool) (Tag, error)
}

// Stats are counters over the tags returned by a Driver.
type Stats struct {
	DecodedTags  int64
	TotalTagSize int64
	MaxTagSize   int64
	VideoTags    int64
	VideoBytes   int64
	AudioTags    int64
	AudioBytes   int64
}

func (s Stats) TotalTags() int64 {
	return s.AudioTags + s.VideoTags
}

func (s Stats) String() string {
	return fmt.Sprintf("total_tags=%d total_bytes=%d maximum_tag_size=%d video_tags=%d video_bytes=%d audio_tags=%d audio_bytes=%d",
		s.DecodedTags, s.TotalTagSize, s.MaxTagSize, s.VideoTags, s.VideoBytes, s.AudioTags, s.AudioBytes)
}

// Driver runs a Splitter and keeps statistics about its output.
type Driver struct {
	splitter Splitter
	stats    Stats
}

func NewDriver(s Splitter) *Driver {
	return &Driver{splitter: s}
}

func (d *Driver) Splitter() Splitter {
	return d.splitter
}

func (d *Driver) Stats() Stats {
	return d.stats
}

// GetNextTag returns the next tag found in in. It returns status.NoData when
// more input is needed and status.EOF when eos is set and nothing is left.
func (d *Driver) GetNextTag(in *bytestream.Stream, eos bool) (Tag, error) {
	for {
		t, err := d.splitter.GetNextTagInternal(in, eos)
		if err == status.Skip {
			continue
		}
		if err == status.NoData {
			if eos {
				return nil, status.EOF
			}
			return nil, status.NoData
		}
		if err != nil {
			return nil, err
		}

		size := int64(t.Size())
		d.stats.DecodedTags++
		d.stats.TotalTagSize += size
		if size > d.stats.MaxTagSize {
			d.stats.MaxTagSize = size
		}
		if Is(t, AttrVideo) {
			d.stats.VideoTags++
			d.stats.VideoBytes += size
		}
		if Is(t, AttrAudio) {
			d.stats.AudioTags++
			d.stats.AudioBytes += size
		}
		return t, nil
	}
}

// Serializer writes tags back into a container format.
type Serializer interface {
	// Initialize writes whatever precedes the first tag.
	Initialize(out *bytestream.Stream)
	// Serialize writes t with timestamp ts. Tags the format cannot carry are
	// silently ignored.
	Serialize(t Tag, ts int64, out *bytestream.Stream) error
	// Finalize writes whatever follows the last tag.
	Finalize(out *bytestream.Stream)
}
