package rtmp

import (
	"go.uber.org/zap"

	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/rand"
	"github.com/torresjeff/go-rtmp/status"
)

// DefaultMemoryLimit bounds the bytes a Coder buffers for incomplete events.
const DefaultMemoryLimit = 16 << 20

// Coder turns a byte stream into events and events into chunks for one
// connection. It owns the connection ProtocolState.
//
// A Coder is not safe for concurrent use.
type Coder struct {
	logger      *zap.SugaredLogger
	name        string
	state       *ProtocolState
	memoryLimit int
	memoryUsed  int

	// pending is set while the chunks of an event are arriving on
	// pendingChannel, so continuation headers can skip a full decode.
	pending        bool
	pendingChannel uint32
}

// NewCoder returns a coder that refuses to buffer more than memoryLimit bytes
// of incomplete events. A memoryLimit <= 0 selects DefaultMemoryLimit.
func NewCoder(logger *zap.Logger, memoryLimit int) *Coder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if memoryLimit <= 0 {
		memoryLimit = DefaultMemoryLimit
	}
	name := rand.ShortName()
	return &Coder{
		logger:      logger.Sugar().With("coder", name),
		name:        name,
		state:       NewProtocolState(),
		memoryLimit: memoryLimit,
	}
}

func (c *Coder) Name() string {
	return c.name
}

func (c *Coder) State() *ProtocolState {
	return c.state
}

// MemoryUsed is the number of bytes held by incomplete events.
func (c *Coder) MemoryUsed() int {
	return c.memoryUsed
}

// Reset forgets every header, partial body and chunk size.
func (c *Coder) Reset() {
	c.state.Reset()
	c.memoryUsed = 0
	c.pending = false
}

// decodeHeader reads the next chunk header. A continuation of the pending
// event on a one byte channel id is resolved without a full decode.
func (c *Coder) decodeHeader(in *bytestream.Stream) (Header, uint32, error) {
	if c.pending && c.pendingChannel <= 0x3f {
		last, lastSize := c.state.LastReadHeader(c.pendingChannel)
		b, ok := in.PeekByte()
		if ok && last != nil && last.Timestamp < extendedTimestamp &&
			b == byte(HeaderContinue)<<6|byte(c.pendingChannel) {
			in.Skip(1)
			return *last, lastSize, nil
		}
	}
	var h Header
	size, err := h.Decode(in, c.state)
	return h, size, err
}

// Decode reads one event from in. It returns status.NoData when in does not
// hold the rest of an event yet; the chunks already complete are consumed
// and kept in the protocol state.
//
// When the event body fails to decode, the event is returned along with the
// error. NotImplemented and UnsupportedReferences errors leave the
// connection usable; any other error is fatal.
func (c *Coder) Decode(in *bytestream.Stream) (Event, error) {
	for {
		in.MarkerSet()
		h, size, err := c.decodeHeader(in)
		if err != nil {
			in.MarkerRestore()
			if err != status.NoData {
				c.logger.Errorf("failed to decode header: %v", err)
			}
			return nil, err
		}

		body := c.state.PartialBody(h.ChannelID)
		initial := body.Size()
		toRead := int(size) - initial
		if toRead > c.state.ReadChunkSize {
			toRead = c.state.ReadChunkSize
		}
		if toRead < 0 {
			in.MarkerRestore()
			c.logger.Errorf("invalid header to read data, chunk size: %d, header: %s, partial body: %d bytes",
				c.state.ReadChunkSize, h, initial)
			return nil, status.Errorf(status.CorruptedData, "rtmp: body of %d bytes already exceeds the announced %d", initial, size)
		}
		if in.Size() < toRead {
			in.MarkerRestore()
			return nil, status.NoData
		}
		if c.memoryUsed+toRead > c.memoryLimit {
			in.MarkerRestore()
			c.logger.Warnf("OOM on header: %s, reached: %d", h, c.memoryUsed+toRead)
			return nil, status.Errorf(status.OOM, "rtmp: memory limit of %d bytes reached", c.memoryLimit)
		}
		body.AppendStream(in, toRead)
		c.memoryUsed += toRead
		in.MarkerClear()

		if initial == 0 {
			c.state.SetLastReadHeader(h, size)
		}
		if body.Size() < int(size) {
			c.pending = true
			c.pendingChannel = h.ChannelID
			continue
		}
		c.pending = false

		// The event carries the header of its first chunk.
		first, _ := c.state.LastReadHeader(h.ChannelID)
		ev, err := CreateEvent(*first)
		if err != nil {
			c.state.ClearPartialBody(h.ChannelID)
			c.memoryUsed -= body.Size()
			return nil, err
		}
		c.memoryUsed -= body.Size()
		err = ev.DecodeBody(body)
		if status.Is(err, status.NoData) {
			err = status.Errorf(status.CorruptedData, "rtmp: truncated %s body", h.EventType)
		}
		if err != nil {
			c.logger.Errorf("failed to decode event: %s, err: %v", ev, err)
			c.state.ClearPartialBody(h.ChannelID)
			return ev, err
		}
		if !body.IsEmpty() {
			c.logger.Errorf("event bytes left by decoder: %d bytes for event: %s", body.Size(), ev)
		}
		c.state.ClearPartialBody(h.ChannelID)

		switch e := ev.(type) {
		case *ChunkSize:
			if e.ChunkSize() > MaxChunkSize || e.ChunkSize() == 0 {
				c.logger.Errorf("refusing to set chunk size: %d", e.ChunkSize())
			} else {
				c.logger.Infof("setting read chunk size to: %d", e.ChunkSize())
				c.state.ReadChunkSize = int(e.ChunkSize())
			}
		case *Ping:
			if !e.PingType.Valid() {
				c.logger.Warnf("invalid ping type: %d", e.PingType)
			}
		}
		return ev, nil
	}
}

// Encode writes ev as a sequence of chunks and returns the number of chunks
// written.
func (c *Coder) Encode(ev Event, out *bytestream.Stream) (int, error) {
	body, err := EncodeBody(ev)
	if err != nil {
		return 0, err
	}
	return c.EncodeWithAuxBuffer(ev, body, out)
}

// EncodeWithAuxBuffer writes ev with body as its already encoded payload.
// body is left untouched so the same payload can be sent on several
// connections.
func (c *Coder) EncodeWithAuxBuffer(ev Event, body *bytestream.Stream, out *bytestream.Stream) (int, error) {
	if cs, ok := ev.(*ChunkSize); ok {
		if cs.ChunkSize() == 0 {
			return 0, status.Errorf(status.CorruptedData, "rtmp: cannot send a zero chunk size")
		}
		c.state.WriteChunkSize = int(cs.ChunkSize())
	}

	h := ev.Header()
	size := body.Size()
	remaining := size
	offset := 0
	chunks := 0
	for {
		if err := h.Encode(c.state, uint32(size), chunks > 0, out); err != nil {
			return chunks, err
		}
		if chunks == 0 {
			c.state.SetLastWriteHeader(*h, uint32(size))
		}
		n := remaining
		if n > c.state.WriteChunkSize {
			n = c.state.WriteChunkSize
		}
		out.AppendStreamNonDestructive(body, offset, n)
		offset += n
		remaining -= n
		chunks++
		if remaining <= 0 {
			return chunks, nil
		}
	}
}
