package rtmp

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/torresjeff/go-rtmp/amf/amf0"
	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/config"
	"github.com/torresjeff/go-rtmp/flv"
	"github.com/torresjeff/go-rtmp/rand"
	"github.com/torresjeff/go-rtmp/tag"
)

const (
	NetConnectionSuccess    = "NetConnection.Connect.Success"
	NetConnectionRejected   = "NetConnection.Connect.Rejected"
	NetStreamPublishStart   = "NetStream.Publish.Start"
	NetStreamPublishBadName = "NetStream.Publish.BadName"
	NetStreamUnpublish      = "NetStream.Unpublish.Success"
)

const limitTypeDynamic uint8 = 2

const objectEncodingAMF0 = 0

var ErrNotPublishing = errors.New("rtmp: media received before publish")

// RecordingHandler accepts publishers and writes every published stream to
// an FLV file named after the stream.
type RecordingHandler struct {
	logger *zap.SugaredLogger
	// App is the only application accepted by connect. Empty accepts any.
	App string
	// Registry, when set, refuses streams already published by another
	// session.
	Registry    *Registry
	dir         string
	writeHeader bool
	maxTagSize  int
	chunkSize   uint32

	streamName string
	owner      string
	path       string
	file       *os.File
	w          *bufio.Writer
	serializer *flv.Serializer
	out        *bytestream.Stream
	tags       int
	dropped    int
}

func NewRecordingHandler(logger *zap.Logger, cfg *config.Config) *RecordingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordingHandler{
		logger:      logger.Sugar(),
		dir:         cfg.RecordDir,
		writeHeader: *cfg.FLV.WriteHeader,
		maxTagSize:  cfg.FLV.MaxTagSize,
		chunkSize:   uint32(cfg.WriteChunkSize),
		out:         bytestream.New(bytestream.DefaultBlockSize),
	}
}

// Path returns the file of the current or last recording.
func (h *RecordingHandler) Path() string {
	return h.path
}

// Tags returns the number of tags recorded so far.
func (h *RecordingHandler) Tags() int {
	return h.tags
}

func (h *RecordingHandler) HandleEvent(s *Session, ev Event, ts int64) error {
	switch e := ev.(type) {
	case *Invoke:
		return h.handleInvoke(s, e)
	case *Notify:
		return h.handleNotify(e, ts)
	case *AudioData:
		t, err := e.DecodeTag(ts)
		return h.recordMedia(s, t, err)
	case *VideoData:
		t, err := e.DecodeTag(ts)
		return h.recordMedia(s, t, err)
	case *MediaData:
		tags, err := e.Tags(ts)
		for _, t := range tags {
			if rerr := h.record(t); rerr != nil {
				return rerr
			}
		}
		if err != nil {
			s.Logger().Warnf("dropping the rest of media data: %v", err)
		}
		return nil
	}
	return nil
}

func (h *RecordingHandler) handleInvoke(s *Session, e *Invoke) error {
	call := e.Call
	streamID := e.Header().StreamID
	s.Logger().Debugf("received invoke: %s", call)
	switch call.MethodName {
	case "connect":
		return h.onConnect(s, call)
	case "FCPublish":
		name, _ := stringArgument(call, 0)
		return s.Invoke(streamID, NewCall("onFCPublish", 0, amf0.Null{},
			statusObject("status", NetStreamPublishStart, "FCPublish to stream "+name)))
	case "createStream":
		if err := s.Invoke(streamID, NewCall("_result", call.InvokeID, amf0.Null{}, amf0.Number(config.DefaultStreamID))); err != nil {
			return err
		}
		return s.Send(NewPing(NewHeader(2, 0, EventPing, 0, false), PingStreamClear, int32(config.DefaultStreamID), -1, -1, -1))
	case "publish":
		name, ok := stringArgument(call, 0)
		if !ok || name == "" {
			return errors.Errorf("rtmp: publish without a stream name: %s", call)
		}
		if err := h.startRecording(s.ID(), name); err != nil {
			if errors.Is(err, ErrStreamExists) {
				s.Logger().Warnf("refusing publish: %v", err)
				return s.Invoke(streamID, NewCall("onStatus", 0, amf0.Null{},
					statusObject("error", NetStreamPublishBadName, "Stream "+name+" is already being published")))
			}
			return err
		}
		s.Logger().Infof("recording stream %s to %s", name, h.path)
		return s.Invoke(streamID, NewCall("onStatus", 0, amf0.Null{},
			statusObject("status", NetStreamPublishStart, "Publishing "+name)))
	case "FCUnpublish":
		if h.serializer == nil {
			return nil
		}
		name := h.streamName
		if err := h.finishRecording(); err != nil {
			return err
		}
		return s.Invoke(streamID, NewCall("onStatus", 0, amf0.Null{},
			statusObject("status", NetStreamUnpublish, "Unpublished "+name)))
	case "deleteStream", "closeStream":
		if h.serializer == nil {
			return nil
		}
		return h.finishRecording()
	case "releaseStream", "_checkbw", "getStreamLength":
		return nil
	}
	s.Logger().Debugf("ignoring invoke: %s", call.Action())
	return nil
}

func (h *RecordingHandler) onConnect(s *Session, call *Call) error {
	var app string
	if params, ok := call.ConnectionParams.(*amf0.Object); ok {
		app, _ = params.GetString("app")
	}
	if h.App != "" && app != h.App {
		s.Logger().Warnf("user trying to connect to app %q, but the app doesn't exist", app)
		s.Stop()
		return s.Invoke(0, NewCall("_error", call.InvokeID, amf0.Null{},
			statusObject("error", NetConnectionRejected, "No such application: "+app)))
	}

	replies := []Event{
		NewServerBW(NewHeader(2, 0, EventServerBW, 0, false), config.DefaultClientWindowSize),
		NewClientBW(NewHeader(2, 0, EventClientBW, 0, false), config.DefaultClientWindowSize, limitTypeDynamic),
		NewPing(NewHeader(2, 0, EventPing, 0, false), PingStreamClear, int32(config.DefaultPublishStream), -1, -1, -1),
		NewChunkSize(NewHeader(2, 0, EventChunkSize, 0, false), h.chunkSize),
	}
	for _, ev := range replies {
		if err := s.Send(ev); err != nil {
			return err
		}
	}

	props := amf0.NewObject()
	props.Set("fmsVer", amf0.String(config.FlashMediaServerVersion))
	props.Set("capabilities", amf0.Number(config.Capabilities))
	props.Set("mode", amf0.Number(config.Mode))
	info := statusObject("status", NetConnectionSuccess, "Connection accepted.")
	info.Set("objectEncoding", amf0.Number(objectEncodingAMF0))
	return s.Invoke(0, NewCall("_result", call.InvokeID, props, info))
}

func (h *RecordingHandler) handleNotify(e *Notify, ts int64) error {
	name, values := e.Name, e.Values
	if name == "@setDataFrame" && len(values) > 0 {
		if n, ok := values[0].(amf0.String); ok {
			name, values = string(n), values[1:]
		}
	}
	if name != flv.OnMetaData || len(values) == 0 {
		return nil
	}
	t := flv.NewTag(tag.AttrMetadata, tag.DefaultFlavourMask, ts, flv.NewMetadata(name, values[0]))
	return h.record(t)
}

func (h *RecordingHandler) startRecording(sessionID, name string) error {
	if h.serializer != nil {
		if err := h.finishRecording(); err != nil {
			return err
		}
	}
	streamName := sanitizeStreamName(name)
	if h.Registry != nil {
		if err := h.Registry.RegisterPublisher(streamName, sessionID); err != nil {
			return err
		}
	}
	h.streamName, h.owner = streamName, sessionID
	h.path = filepath.Join(h.dir, h.streamName+"-"+rand.NewName()+".flv")
	f, err := os.Create(h.path)
	if err != nil {
		h.release()
		return errors.Wrap(err, "rtmp: creating recording")
	}
	h.file = f
	h.w = bufio.NewWriterSize(f, config.BufioSize)
	h.serializer = flv.NewSerializer(h.writeHeader, true, true)
	h.serializer.Initialize(h.out)
	h.tags = 0
	return nil
}

// recordMedia records the tag of an audio or video event. Malformed media
// is dropped.
func (h *RecordingHandler) recordMedia(s *Session, t *flv.Tag, err error) error {
	if err != nil {
		s.Logger().Warnf("dropping media: %v", err)
		return nil
	}
	if t == nil {
		return nil
	}
	return h.record(t)
}

func (h *RecordingHandler) record(t *flv.Tag) error {
	if h.serializer == nil {
		h.dropped++
		if h.dropped == 1 {
			h.logger.Warnf("%v: %s", ErrNotPublishing, t)
		}
		return nil
	}
	if h.maxTagSize > 0 && t.Size() > h.maxTagSize {
		h.logger.Warnf("dropping oversized tag: %s", t)
		return nil
	}
	if err := h.serializer.Serialize(t, t.Timestamp(), h.out); err != nil {
		return err
	}
	h.tags++
	if _, err := h.out.WriteTo(h.w); err != nil {
		return errors.Wrap(err, "rtmp: writing recording")
	}
	return nil
}

func (h *RecordingHandler) release() {
	if h.Registry != nil {
		h.Registry.DestroyPublisher(h.streamName, h.owner)
	}
}

func (h *RecordingHandler) finishRecording() error {
	h.serializer.Finalize(h.out)
	h.serializer = nil
	h.release()
	_, err := h.out.WriteTo(h.w)
	if ferr := h.w.Flush(); err == nil {
		err = ferr
	}
	if cerr := h.file.Close(); err == nil {
		err = cerr
	}
	h.logger.Infof("recorded %d tags of stream %s to %s", h.tags, h.streamName, h.path)
	return errors.Wrap(err, "rtmp: closing recording")
}

func (h *RecordingHandler) Close(s *Session) error {
	if h.serializer == nil {
		return nil
	}
	return h.finishRecording()
}

func statusObject(level, code, description string) *amf0.Object {
	o := amf0.NewObject()
	o.Set("level", amf0.String(level))
	o.Set("code", amf0.String(code))
	o.Set("description", amf0.String(description))
	return o
}

func stringArgument(call *Call, i int) (string, bool) {
	s, ok := call.Argument(i).(amf0.String)
	return string(s), ok
}

// sanitizeStreamName drops the query string of a stream name and keeps it
// inside the recording directory.
func sanitizeStreamName(name string) string {
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." {
		return "stream"
	}
	return name
}
