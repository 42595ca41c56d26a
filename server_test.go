package rtmp

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	oryxflv "github.com/ossrs/go-oryx-lib/flv"
	"github.com/pkg/errors"

	"github.com/torresjeff/go-rtmp/amf/amf0"
	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/config"
	"github.com/torresjeff/go-rtmp/status"
)

// testClient is a minimal publisher.
type testClient struct {
	t     *testing.T
	conn  net.Conn
	w     *bufio.Writer
	coder *Coder
	in    *bytestream.Stream
}

func dialTestClient(t *testing.T, addr string) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conn.SetDeadline(time.Now().Add(10 * time.Second))
	c := &testClient{t: t, conn: conn, w: bufio.NewWriter(conn), coder: NewCoder(nil, 0), in: bytestream.New(0)}
	if err := ClientHandshake(conn, c.w); err != nil {
		t.Fatalf("handshake failed: %v", err)
	}
	return c
}

func (c *testClient) send(events ...Event) {
	c.t.Helper()
	out := bytestream.New(0)
	for _, ev := range events {
		if _, err := c.coder.Encode(ev, out); err != nil {
			c.t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := out.WriteTo(c.w); err != nil {
		c.t.Fatalf("unexpected error: %v", err)
	}
	if err := c.w.Flush(); err != nil {
		c.t.Fatalf("unexpected error: %v", err)
	}
}

// waitInvoke reads events until an invoke of the given method arrives.
func (c *testClient) waitInvoke(method string) *Call {
	c.t.Helper()
	buf := make([]byte, 4096)
	for {
		for {
			ev, err := c.coder.Decode(c.in)
			if status.Is(err, status.NoData) {
				break
			}
			if err != nil {
				c.t.Fatalf("unexpected error: %v", err)
			}
			if inv, ok := ev.(*Invoke); ok && inv.Call.MethodName == method {
				return inv.Call
			}
		}
		n, err := c.conn.Read(buf)
		if err != nil {
			c.t.Fatalf("waiting for %s: %v", method, err)
		}
		c.in.AppendRaw(append([]byte(nil), buf[:n]...))
	}
}

// closingHandler reports the end of the session.
type closingHandler struct {
	*RecordingHandler
	closed chan string
}

func (h closingHandler) Close(s *Session) error {
	err := h.RecordingHandler.Close(s)
	h.closed <- h.Path()
	return err
}

func startTestServer(t *testing.T, cfg *config.Config, closed chan string) (string, func()) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := &Server{
		Config: cfg,
		NewHandler: func() EventHandler {
			return closingHandler{NewRecordingHandler(nil, cfg), closed}
		},
	}
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, listener) }()
	return listener.Addr().String(), func() {
		cancel()
		if err := <-served; err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}
}

func TestServer_Publish(t *testing.T) {
	cfg := config.Default()
	cfg.RecordDir = t.TempDir()
	closed := make(chan string, 1)
	addr, stop := startTestServer(t, cfg, closed)
	defer stop()

	c := dialTestClient(t, addr)
	params := amf0.NewObject()
	params.Set("app", amf0.String("live"))
	params.Set("tcUrl", amf0.String("rtmp://"+addr+"/live"))
	c.send(NewInvoke(NewHeader(3, 0, EventInvoke, 0, false), NewCall("connect", 1, params)))
	result := c.waitInvoke("_result")
	info, ok := result.Argument(0).(*amf0.Object)
	if !ok {
		t.Fatalf("got %v, want an info object", result.Argument(0))
	}
	if code, _ := info.GetString("code"); code != NetConnectionSuccess {
		t.Errorf("got %v, want %v", code, NetConnectionSuccess)
	}
	if c.coder.State().ReadChunkSize != cfg.WriteChunkSize {
		t.Errorf("got %v, want %v", c.coder.State().ReadChunkSize, cfg.WriteChunkSize)
	}

	c.send(NewInvoke(NewHeader(3, 0, EventInvoke, 0, false), NewCall("createStream", 2, amf0.Null{})))
	result = c.waitInvoke("_result")
	if got := result.Argument(0); !valueEqual(got, amf0.Number(config.DefaultStreamID)) {
		t.Errorf("got %v, want %v", got, config.DefaultStreamID)
	}

	c.send(NewInvoke(NewHeader(4, 1, EventInvoke, 0, false), NewCall("publish", 3, amf0.Null{}, amf0.String("cam?key=secret"), amf0.String("live"))))
	onStatus := c.waitInvoke("onStatus")
	if info, _ := onStatus.Argument(0).(*amf0.Object); info == nil {
		t.Fatalf("got %v, want an info object", onStatus.Argument(0))
	} else if code, _ := info.GetString("code"); code != NetStreamPublishStart {
		t.Errorf("got %v, want %v", code, NetStreamPublishStart)
	}

	meta := amf0.NewECMAArray()
	meta.Set("width", amf0.Number(1280))
	meta.Set("height", amf0.Number(720))
	media := []Event{
		NewNotify(NewHeader(5, 1, EventNotify, 0, false), "@setDataFrame", amf0.String("onMetaData"), meta),
		NewVideoData(NewHeader(6, 1, EventVideoData, 0, false), bytestream.NewFromBytes(avcKeyFrame)),
		NewAudioData(NewHeader(4, 1, EventAudioData, 0, false), bytestream.NewFromBytes(aacSequenceHeader)),
		NewAudioData(NewHeader(4, 1, EventAudioData, 23, true), bytestream.NewFromBytes(aacRawFrame)),
		NewVideoData(NewHeader(6, 1, EventVideoData, 40, true), bytestream.NewFromBytes(avcKeyFrame)),
	}
	c.send(media...)
	c.send(NewInvoke(NewHeader(3, 0, EventInvoke, 0, false), NewCall("deleteStream", 4, amf0.Null{}, amf0.Number(1))))
	c.conn.Close()

	var path string
	select {
	case path = <-closed:
	case <-time.After(10 * time.Second):
		t.Fatal("session did not end")
	}
	if filepath.Dir(path) != cfg.RecordDir {
		t.Errorf("got %v, want a file in %v", path, cfg.RecordDir)
	}
	if base := filepath.Base(path); len(base) < 4 || base[:4] != "cam-" {
		t.Errorf("got %v, want a name starting with cam-", base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, err := oryxflv.NewDemuxer(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, _, err := d.ReadHeader(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		tagType oryxflv.TagType
		ts      uint32
	}{
		{oryxflv.TagTypeScriptData, 0},
		{oryxflv.TagTypeVideo, 0},
		{oryxflv.TagTypeAudio, 0},
		{oryxflv.TagTypeAudio, 23},
		{oryxflv.TagTypeVideo, 40},
	}
	for _, w := range want {
		tagType, size, ts, err := d.ReadTagHeader()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tagType != w.tagType || ts != w.ts {
			t.Errorf("got %v@%v, want %v@%v", tagType, ts, w.tagType, w.ts)
		}
		if _, err := d.ReadTag(size); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

// publish connects c and publishes stream name, returning the info object
// of the onStatus reply.
func (c *testClient) publish(name string) *amf0.Object {
	c.t.Helper()
	params := amf0.NewObject()
	params.Set("app", amf0.String("live"))
	c.send(NewInvoke(NewHeader(3, 0, EventInvoke, 0, false), NewCall("connect", 1, params)))
	c.waitInvoke("_result")
	c.send(NewInvoke(NewHeader(3, 0, EventInvoke, 0, false), NewCall("createStream", 2, amf0.Null{})))
	c.waitInvoke("_result")
	c.send(NewInvoke(NewHeader(4, 1, EventInvoke, 0, false), NewCall("publish", 3, amf0.Null{}, amf0.String(name), amf0.String("live"))))
	info, _ := c.waitInvoke("onStatus").Argument(0).(*amf0.Object)
	if info == nil {
		c.t.Fatal("onStatus without an info object")
	}
	return info
}

func TestServer_DuplicatePublish(t *testing.T) {
	cfg := config.Default()
	cfg.RecordDir = t.TempDir()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := &Server{Config: cfg}
	go srv.Serve(ctx, listener)
	addr := listener.Addr().String()

	first := dialTestClient(t, addr)
	defer first.conn.Close()
	if code, _ := first.publish("cam").GetString("code"); code != NetStreamPublishStart {
		t.Fatalf("got %v, want %v", code, NetStreamPublishStart)
	}

	second := dialTestClient(t, addr)
	defer second.conn.Close()
	if code, _ := second.publish("cam").GetString("code"); code != NetStreamPublishBadName {
		t.Errorf("got %v, want %v", code, NetStreamPublishBadName)
	}
	if code, _ := second.publish("other").GetString("code"); code != NetStreamPublishStart {
		t.Errorf("got %v, want %v", code, NetStreamPublishStart)
	}
}

func TestServer_RejectsUnknownApp(t *testing.T) {
	cfg := config.Default()
	cfg.RecordDir = t.TempDir()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := &Server{
		Config: cfg,
		NewHandler: func() EventHandler {
			h := NewRecordingHandler(nil, cfg)
			h.App = "live"
			return h
		},
	}
	go srv.Serve(ctx, listener)

	c := dialTestClient(t, listener.Addr().String())
	params := amf0.NewObject()
	params.Set("app", amf0.String("vod"))
	c.send(NewInvoke(NewHeader(3, 0, EventInvoke, 0, false), NewCall("connect", 1, params)))
	result := c.waitInvoke("_error")
	info, _ := result.Argument(0).(*amf0.Object)
	if info == nil {
		t.Fatalf("got %v, want an info object", result.Argument(0))
	}
	if code, _ := info.GetString("code"); code != NetConnectionRejected {
		t.Errorf("got %v, want %v", code, NetConnectionRejected)
	}
}

// brokenListener fails every Accept with a permanent error.
type brokenListener struct {
	net.Listener
	closed chan struct{}
}

func (l *brokenListener) Accept() (net.Conn, error) {
	return nil, errors.New("listener broken")
}

func (l *brokenListener) Close() error {
	close(l.closed)
	return l.Listener.Close()
}

func TestServer_ServeClosesListenerOnAcceptError(t *testing.T) {
	inner, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	listener := &brokenListener{Listener: inner, closed: make(chan struct{})}

	srv := &Server{Config: config.Default()}
	if err := srv.Serve(context.Background(), listener); err == nil {
		t.Errorf("got nil, want an accept error")
	}
	select {
	case <-listener.closed:
	case <-time.After(5 * time.Second):
		t.Error("listener was not closed")
	}
}

func TestSanitizeStreamName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"cam", "cam"},
		{"cam?key=secret", "cam"},
		{"../../etc/passwd", "passwd"},
		{"", "stream"},
		{"?", "stream"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := sanitizeStreamName(tt.in); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
