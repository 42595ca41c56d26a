package rtmp

import (
	"bufio"
	"context"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/config"
	"github.com/torresjeff/go-rtmp/rand"
	"github.com/torresjeff/go-rtmp/status"
)

// EventHandler receives the events of a session, in order, on the session
// goroutine.
type EventHandler interface {
	// HandleEvent is called for every decoded event. ts is the absolute
	// timestamp of the event in milliseconds. A returned error ends the
	// session.
	HandleEvent(s *Session, ev Event, ts int64) error
	// Close is called once when the session ends.
	Close(s *Session) error
}

// Session is one RTMP connection: the handshake followed by events decoded
// with a Coder and handed to an EventHandler.
type Session struct {
	logger     *zap.SugaredLogger
	sessionID  string
	reader     *countingReader
	socketr    *bufio.Reader
	socketw    *bufio.Writer
	handshaker Handshaker
	coder      *Coder
	handler    EventHandler
	in         *bytestream.Stream
	out        *bytestream.Stream
	active     bool

	// timestamps holds the absolute timestamp of the last event on each
	// channel, to resolve relative headers.
	timestamps    [MaxNumChannels]int64
	windowAckSize uint32
	lastAck       uint64
}

// NewSession returns a session reading from and writing to conn. coder
// carries the chunk sizes and memory limit of the connection.
func NewSession(logger *zap.Logger, conn io.ReadWriter, coder *Coder, handler EventHandler) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := rand.NewName()
	reader := &countingReader{reader: conn}
	return &Session{
		logger:     logger.Sugar().With("session", id),
		sessionID:  id,
		reader:     reader,
		socketr:    bufio.NewReaderSize(reader, config.BufioSize),
		socketw:    bufio.NewWriterSize(conn, config.BufioSize),
		handshaker: PlainHandshaker{},
		coder:      coder,
		handler:    handler,
		in:         bytestream.New(bytestream.DefaultBlockSize),
		out:        bytestream.New(bytestream.DefaultBlockSize),
		active:     true,
	}
}

func (s *Session) ID() string {
	return s.sessionID
}

func (s *Session) Logger() *zap.SugaredLogger {
	return s.logger
}

func (s *Session) Coder() *Coder {
	return s.coder
}

// Stop makes Run return once the events already read are handled.
func (s *Session) Stop() {
	s.active = false
}

// Run performs the handshake and handles events until the peer closes the
// connection, ctx is done, Stop is called or an error occurs. The connection
// is not closed.
func (s *Session) Run(ctx context.Context) (err error) {
	defer func() {
		if cerr := s.handler.Close(s); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := s.handshaker.Handshake(s.socketr, s.socketw); err != nil {
		return err
	}
	s.logger.Debug("handshake completed successfully")

	for s.active {
		if err := ctx.Err(); err != nil {
			return err
		}
		buf := make([]byte, config.BufioSize)
		n, rerr := s.socketr.Read(buf)
		if n > 0 {
			s.in.AppendRaw(buf[:n])
			if err := s.process(); err != nil {
				return err
			}
		}
		if rerr == io.EOF {
			if !s.in.IsEmpty() || s.coder.MemoryUsed() > 0 {
				s.logger.Warnf("connection closed with %d bytes unprocessed", s.in.Size()+s.coder.MemoryUsed())
			}
			return nil
		}
		if rerr != nil {
			return errors.Wrap(rerr, "session: read")
		}
	}
	return nil
}

func (s *Session) process() error {
	for s.active {
		ev, err := s.coder.Decode(s.in)
		if status.Is(err, status.NoData) {
			break
		}
		if err != nil {
			if ev != nil && (status.Is(err, status.NotImplemented) || status.Is(err, status.UnsupportedReferences)) {
				s.logger.Warnf("skipping event: %s, err: %v", ev, err)
				continue
			}
			return err
		}

		ts := s.timestamp(ev.Header())
		if err := s.handleProtocolEvent(ev); err != nil {
			return err
		}
		if err := s.handler.HandleEvent(s, ev, ts); err != nil {
			return err
		}
	}
	return s.acknowledge()
}

func (s *Session) timestamp(h *Header) int64 {
	if h.ChannelID >= MaxNumChannels {
		return int64(h.Timestamp)
	}
	if h.Relative {
		s.timestamps[h.ChannelID] += int64(h.Timestamp)
	} else {
		s.timestamps[h.ChannelID] = int64(h.Timestamp)
	}
	return s.timestamps[h.ChannelID]
}

func (s *Session) handleProtocolEvent(ev Event) error {
	switch e := ev.(type) {
	case *ServerBW:
		s.logger.Debugf("peer window acknowledgement size: %d", e.Bandwidth())
		s.windowAckSize = e.Bandwidth()
	case *Ping:
		if e.PingType == PingClient {
			return s.Send(NewPing(NewHeader(2, 0, EventPing, 0, false), PongServer, e.Value2, -1, -1, -1))
		}
	}
	return nil
}

func (s *Session) acknowledge() error {
	if s.windowAckSize == 0 {
		return nil
	}
	read := s.reader.ReadBytes()
	if read-s.lastAck < uint64(s.windowAckSize) {
		return nil
	}
	s.lastAck = read
	return s.Send(NewBytesRead(NewHeader(2, 0, EventBytesRead, 0, false), uint32(read)))
}

// Send encodes ev and writes it to the connection.
func (s *Session) Send(ev Event) error {
	if _, err := s.coder.Encode(ev, s.out); err != nil {
		return errors.Wrapf(err, "session: encoding %s", ev.Type())
	}
	if _, err := s.out.WriteTo(s.socketw); err != nil {
		return errors.Wrap(err, "session: write")
	}
	return s.socketw.Flush()
}

// Invoke sends call on the command channel of streamID.
func (s *Session) Invoke(streamID uint32, call *Call) error {
	return s.Send(NewInvoke(NewHeader(3, streamID, EventInvoke, 0, false), call))
}
