package rtmp

import (
	"context"
	"net"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/torresjeff/go-rtmp/config"
)

// Server represents the RTMP server, where a client/app can stream media to. The server listens for incoming connections.
type Server struct {
	Addr   string
	Logger *zap.Logger
	Config *config.Config
	// NewHandler returns the handler of a new session. When nil every
	// published stream is recorded to Config.RecordDir.
	NewHandler func() EventHandler
	// Registry tracks the published streams. Serve creates one when nil.
	Registry *Registry
}

func (s *Server) config() *config.Config {
	if s.Config == nil {
		s.Config = config.Default()
	}
	return s.Config
}

// Listen starts the server and serves incoming connections until ctx is
// done. If no Addr (host:port) has been assigned to the server, the
// configured listen address is used.
func (s *Server) Listen(ctx context.Context) error {
	if s.Addr == "" {
		s.Addr = s.config().Listen
	}
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.Addr)
	if err != nil {
		return errors.Wrapf(err, "[server] error listening on %s", s.Addr)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done, then closes the
// listener and every connection and waits for the sessions to end.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	logger := s.Logger.Sugar()
	cfg := s.config()
	if s.Registry == nil {
		s.Registry = NewRegistry()
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		listener.Close()
	}()

	logger.Infof("[server] Listening on %s", listener.Addr())
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Temporary() {
				logger.Errorf("[server] Error accepting incoming connection: %v", err)
				continue
			}
			return errors.Wrap(err, "[server] accept")
		}
		logger.Infof("[server] Accepted incoming connection from %s", conn.RemoteAddr())

		wg.Add(1)
		go func(conn net.Conn) {
			defer wg.Done()
			s.serveConn(ctx, conn, cfg)
		}(conn)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn, cfg *config.Config) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	var handler EventHandler
	if s.NewHandler != nil {
		handler = s.NewHandler()
	} else {
		h := NewRecordingHandler(s.Logger, cfg)
		h.Registry = s.Registry
		handler = h
	}
	coder := NewCoder(s.Logger, cfg.MemoryLimit)
	coder.State().ReadChunkSize = cfg.ReadChunkSize

	sess := NewSession(s.Logger, conn, coder, handler)
	logger := sess.Logger()
	logger.Infof("[server] Starting session from %s", conn.RemoteAddr())
	if err := sess.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Errorf("[server] Session ended with an error: %v", err)
		return
	}
	logger.Info("[server] Session ended.")
}
