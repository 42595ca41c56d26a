package flv

import (
	"math"

	"go.uber.org/zap"

	"github.com/torresjeff/go-rtmp/amf/amf0"
	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/status"
	"github.com/torresjeff/go-rtmp/tag"
)

// MediaInfoMaxWait is the number of queued tags after which the splitter
// gives up waiting for the tags it learns the media info from.
const MediaInfoMaxWait = 100

// Splitter cuts an FLV byte stream into tags.
//
// The splitter starts by bootstrapping: the header and the first tags are
// queued until the first metadata tag and the first audio and video tags
// announced by the header are seen. Queued tags are then replayed in order,
// preceded by a tag.BOS, and later tags are returned as they are decoded.
type Splitter struct {
	log        *zap.SugaredLogger
	maxTagSize int

	firstTagTs int64
	queue      []tag.Tag

	hasAudio bool
	hasVideo bool

	firstAudio    *Tag
	firstVideo    *Tag
	firstMetadata *Tag
	mediaInfo     *MediaInfo
	infoExtracted bool
	bootstrapping bool
}

// NewSplitter returns a splitter named name in logs. A maxTagSize <= 0
// selects DefaultMaxTagSize.
func NewSplitter(logger *zap.Logger, name string, maxTagSize int) *Splitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxTagSize <= 0 {
		maxTagSize = DefaultMaxTagSize
	}
	return &Splitter{
		log:           logger.Named(name).Sugar(),
		maxTagSize:    maxTagSize,
		firstTagTs:    -1,
		bootstrapping: true,
	}
}

// MediaInfo returns what was learned during bootstrapping, or nil when the
// splitter gave up or has not finished bootstrapping.
func (s *Splitter) MediaInfo() *MediaInfo {
	return s.mediaInfo
}

func (s *Splitter) Bootstrapping() bool {
	return s.bootstrapping
}

func (s *Splitter) GetNextTagInternal(in *bytestream.Stream, eos bool) (tag.Tag, error) {
	if len(s.queue) > 0 && !s.bootstrapping {
		t := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.log.Debugf("next tag: %s", t)
		return t, nil
	}

	if in.Size() < 4 {
		if eos && s.bootstrapping {
			s.endBootstrapping()
			return nil, status.Skip
		}
		return nil, status.NoData
	}

	if IsHeader(in) {
		h, err := DecodeHeader(in)
		if err != nil {
			return nil, err
		}
		s.log.Debugf("decoded FLV header: %s", h)
		s.hasAudio = h.HasAudio()
		s.hasVideo = h.HasVideo()
		if s.bootstrapping {
			s.queue = append(s.queue, h)
			return nil, status.Skip
		}
		return h, nil
	}

	t, err := DecodeTag(in, s.maxTagSize)
	if err != nil {
		if err == status.NoData {
			if eos && s.bootstrapping {
				s.endBootstrapping()
				return nil, status.Skip
			}
			return nil, err
		}
		s.log.Errorf("failed to decode tag: %v", err)
		return nil, err
	}
	t.LearnAttributes()

	if m := t.MetadataBody(); m != nil && m.Name == OnMetaData {
		cuePoints := RetrieveCuePoints(m, t.Timestamp())
		m.Delete("cuePoints")
		if cuePoints != nil {
			s.queue = append(s.queue, cuePoints)
		}
	}

	if s.firstTagTs == -1 {
		s.firstTagTs = t.Timestamp()
	}

	if !s.infoExtracted {
		s.updateMediaInfo(t)
	}

	if s.bootstrapping {
		s.queue = append(s.queue, t)
		if s.infoExtracted {
			s.endBootstrapping()
		}
		return nil, status.Skip
	}

	s.log.Debugf("next tag: %s", t)
	return t, nil
}

func (s *Splitter) updateMediaInfo(t *Tag) {
	switch t.FrameType() {
	case FrameAudio:
		if s.firstAudio == nil {
			s.firstAudio = t
		}
	case FrameVideo:
		if s.firstVideo == nil {
			s.firstVideo = t
		}
	case FrameMetadata:
		if s.firstMetadata == nil {
			s.firstMetadata = t
		}
	}
	if s.firstMetadata != nil &&
		(!s.hasAudio || s.firstAudio != nil) &&
		(!s.hasVideo || s.firstVideo != nil) {
		s.mediaInfo = ExtractMediaInfo(s.firstMetadata, s.firstAudio, s.firstVideo)
		s.log.Debugf("media info: %s", s.mediaInfo)
		s.infoExtracted = true
	}
	if len(s.queue) > MediaInfoMaxWait {
		s.log.Errorf("failed to extract media info in the first %d tags", MediaInfoMaxWait)
		s.infoExtracted = true
	}
}

// endBootstrapping lifts the timestamps of the leading queued tags to the
// first tag timestamp and puts a BOS in front of the queue.
func (s *Splitter) endBootstrapping() {
	for i, t := range s.queue {
		if t.Timestamp() >= s.firstTagTs {
			break
		}
		s.queue[i] = t.Clone(s.firstTagTs)
	}
	bosTs := s.firstTagTs
	if bosTs < 0 {
		bosTs = 0
	}
	s.bootstrapping = false
	s.queue = append([]tag.Tag{tag.NewBOS(tag.DefaultFlavourMask, bosTs)}, s.queue...)
}

// RetrieveCuePoints returns the seek table in the "cuePoints" entry of an
// onMetaData tag, or nil when there is none. Every cue point needs a numeric
// "time" in seconds and a numeric "pos" under "parameters"; others are
// ignored.
func RetrieveCuePoints(m *Metadata, ts int64) *tag.CuePoints {
	if m.Name != OnMetaData {
		return nil
	}
	var entries []amf0.Value
	switch cues := m.Get("cuePoints").(type) {
	case propertyMap:
		for _, p := range cues.Properties() {
			entries = append(entries, p.Value)
		}
	case amf0.StrictArray:
		entries = cues
	default:
		return nil
	}

	points := make([]tag.CuePoint, 0, len(entries))
	for _, e := range entries {
		cue, ok := e.(propertyMap)
		if !ok {
			continue
		}
		timeSec, ok := cue.Get("time").(amf0.Number)
		if !ok {
			continue
		}
		params, ok := cue.Get("parameters").(propertyMap)
		if !ok {
			continue
		}
		pos, ok := params.Get("pos").(amf0.Number)
		if !ok {
			continue
		}
		points = append(points, tag.CuePoint{
			TimeMs:   int64(math.Floor(float64(timeSec) * 1000)),
			Position: int64(math.Floor(float64(pos))),
		})
	}
	return tag.NewCuePoints(tag.DefaultFlavourMask, ts, points)
}
