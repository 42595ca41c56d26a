package tag

import (
	"fmt"
	"sort"

	"github.com/torresjeff/go-rtmp/bytestream"
)

// BOS marks the beginning of a stream.
type BOS struct {
	Base
}

func NewBOS(flavourMask uint32, ts int64) *BOS {
	return &BOS{NewBase(0, flavourMask, ts)}
}

func (*BOS) Type() Type               { return TypeBOS }
func (*BOS) Size() int                { return 0 }
func (*BOS) Data() *bytestream.Stream { return nil }
func (t *BOS) Clone(ts int64) Tag     { return &BOS{t.CloneAt(ts)} }
func (t *BOS) String() string         { return "BOS{" + t.Base.String() + "}" }

// EOS marks the end of a stream. Forced is set when the stream was cut
// rather than reaching its natural end.
type EOS struct {
	Base
	Forced bool
}

func NewEOS(flavourMask uint32, ts int64, forced bool) *EOS {
	return &EOS{Base: NewBase(0, flavourMask, ts), Forced: forced}
}

func (*EOS) Type() Type               { return TypeEOS }
func (*EOS) Size() int                { return 0 }
func (*EOS) Data() *bytestream.Stream { return nil }
func (t *EOS) Clone(ts int64) Tag {
	return &EOS{Base: t.CloneAt(ts), Forced: t.Forced}
}
func (t *EOS) String() string {
	return fmt.Sprintf("EOS{%s, forced: %v}", t.Base.String(), t.Forced)
}

// CuePoint maps a media time to a byte position in the source.
type CuePoint struct {
	TimeMs   int64
	Position int64
}

// CuePoints carries the seek table found in a stream's metadata.
type CuePoints struct {
	Base
	Points []CuePoint
}

func NewCuePoints(flavourMask uint32, ts int64, points []CuePoint) *CuePoints {
	t := &CuePoints{Base: NewBase(AttrMetadata, flavourMask, ts), Points: points}
	t.Sort()
	return t
}

// Sort orders the points by time, then position.
func (t *CuePoints) Sort() {
	sort.Slice(t.Points, func(i, j int) bool {
		if t.Points[i].TimeMs != t.Points[j].TimeMs {
			return t.Points[i].TimeMs < t.Points[j].TimeMs
		}
		return t.Points[i].Position < t.Points[j].Position
	})
}

func (*CuePoints) Type() Type               { return TypeCuePoints }
func (*CuePoints) Size() int                { return 0 }
func (*CuePoints) Data() *bytestream.Stream { return nil }
func (t *CuePoints) Clone(ts int64) Tag {
	points := make([]CuePoint, len(t.Points))
	copy(points, t.Points)
	return &CuePoints{Base: t.CloneAt(ts), Points: points}
}
func (t *CuePoints) String() string {
	return fmt.Sprintf("CuePoints{%s, points: %v}", t.Base.String(), t.Points)
}
