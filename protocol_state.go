package rtmp

import (
	"github.com/torresjeff/go-rtmp/bytestream"
)

// ProtocolState holds the per-connection chunking state: the last header
// read and written on every channel, the bodies of events whose chunks are
// still arriving, and the negotiated chunk sizes.
//
// The state belongs to a single connection and is not safe for concurrent use.
type ProtocolState struct {
	ReadChunkSize  int
	WriteChunkSize int

	lastRead      [MaxNumChannels]*Header
	lastReadSize  [MaxNumChannels]uint32
	lastWrite     [MaxNumChannels]*Header
	lastWriteSize [MaxNumChannels]uint32
	partialBodies [MaxNumChannels]*bytestream.Stream
}

func NewProtocolState() *ProtocolState {
	return &ProtocolState{
		ReadChunkSize:  DefaultChunkSize,
		WriteChunkSize: DefaultChunkSize,
	}
}

// LastReadHeader returns the header of the last event started on channel
// and its body size, or nil when there is none.
func (s *ProtocolState) LastReadHeader(channel uint32) (*Header, uint32) {
	if channel >= MaxNumChannels {
		return nil, 0
	}
	return s.lastRead[channel], s.lastReadSize[channel]
}

// SetLastReadHeader stores a copy of h.
func (s *ProtocolState) SetLastReadHeader(h Header, size uint32) {
	if h.ChannelID >= MaxNumChannels {
		return
	}
	s.lastRead[h.ChannelID] = &h
	s.lastReadSize[h.ChannelID] = size
}

func (s *ProtocolState) ClearLastReadHeader(channel uint32) {
	if channel < MaxNumChannels {
		s.lastRead[channel] = nil
		s.lastReadSize[channel] = 0
	}
}

func (s *ProtocolState) LastWriteHeader(channel uint32) (*Header, uint32) {
	if channel >= MaxNumChannels {
		return nil, 0
	}
	return s.lastWrite[channel], s.lastWriteSize[channel]
}

// SetLastWriteHeader stores a copy of h.
func (s *ProtocolState) SetLastWriteHeader(h Header, size uint32) {
	if h.ChannelID >= MaxNumChannels {
		return
	}
	s.lastWrite[h.ChannelID] = &h
	s.lastWriteSize[h.ChannelID] = size
}

func (s *ProtocolState) ClearLastWriteHeader(channel uint32) {
	if channel < MaxNumChannels {
		s.lastWrite[channel] = nil
		s.lastWriteSize[channel] = 0
	}
}

// PartialBody returns the body accumulated so far on channel, creating it if
// needed. It returns nil for an out of range channel.
func (s *ProtocolState) PartialBody(channel uint32) *bytestream.Stream {
	if channel >= MaxNumChannels {
		return nil
	}
	if s.partialBodies[channel] == nil {
		s.partialBodies[channel] = bytestream.New(bytestream.DefaultBlockSize)
	}
	return s.partialBodies[channel]
}

func (s *ProtocolState) ClearPartialBody(channel uint32) {
	if channel < MaxNumChannels {
		s.partialBodies[channel] = nil
	}
}

// PendingBytes is the number of bytes held by all partial bodies.
func (s *ProtocolState) PendingBytes() int {
	n := 0
	for _, b := range s.partialBodies {
		if b != nil {
			n += b.Size()
		}
	}
	return n
}

// Reset drops every header and partial body and restores the default chunk sizes.
func (s *ProtocolState) Reset() {
	*s = ProtocolState{
		ReadChunkSize:  DefaultChunkSize,
		WriteChunkSize: DefaultChunkSize,
	}
}
