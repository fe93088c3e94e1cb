package webview

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/vesaa/calqshell/internal/bridge"
	"go.uber.org/zap"
)

// Message is the bridge socket frame, in both directions.
//
//	shell -> page: {"type":"inject","code":"..."} | {"type":"reload"}
//	page -> shell: {"type":"loaded","url":"..."} | {"type":"log","level":"...","message":"..."}
type Message struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	URL     string `json:"url,omitempty"`
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	MsgInject = "inject"
	MsgReload = "reload"
	MsgLoaded = "loaded"
	MsgLog    = "log"
)

// Socket is a hosted page connected over the bridge socket.
type Socket struct {
	id      string
	conn    *websocket.Conn
	ctx     context.Context
	timeout time.Duration

	mu  sync.Mutex
	url string
}

func (s *Socket) ID() string { return s.id }

func (s *Socket) Describe() bridge.Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bridge.Info{ID: s.id, Kind: "socket", URL: s.url}
}

// InjectScript sends code for the page to evaluate.
func (s *Socket) InjectScript(code string) error {
	return s.send(Message{Type: MsgInject, Code: code})
}

// Reload asks the page to reload itself. The reloaded page reconnects as a
// new handle.
func (s *Socket) Reload() error {
	return s.send(Message{Type: MsgReload})
}

func (s *Socket) send(m Message) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	return wsjson.Write(ctx, s.conn, m)
}

// SocketServer accepts bridge sockets. Each connection is registered on
// accept and unregistered when it closes.
type SocketServer struct {
	reg          *bridge.Registry
	onLoad       func(bridge.Handle)
	writeTimeout time.Duration
	origins      []string
	log          *zap.Logger
}

// NewSocketServer creates the handler. onLoad runs every time a page reports
// it finished loading; it may be nil.
func NewSocketServer(reg *bridge.Registry, onLoad func(bridge.Handle), log *zap.Logger) *SocketServer {
	if log == nil {
		log = zap.NewNop()
	}
	if onLoad == nil {
		onLoad = func(bridge.Handle) {}
	}
	return &SocketServer{
		reg:          reg,
		onLoad:       onLoad,
		writeTimeout: 5 * time.Second,
		log:          log.Named("socket"),
	}
}

// AllowOrigins permits cross-origin pages matching the given host patterns.
func (s *SocketServer) AllowOrigins(patterns ...string) *SocketServer {
	s.origins = append(s.origins, patterns...)
	return s
}

// ServeHTTP upgrades the request and keeps the handle registered until the
// socket closes.
func (s *SocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.origins})
	if err != nil {
		s.log.Warn("accept failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	h := &Socket{id: uuid.NewString(), conn: conn, ctx: ctx, timeout: s.writeTimeout}
	if err := s.reg.Register(h); err != nil {
		_ = conn.Close(websocket.StatusTryAgainLater, "shell shutting down")
		return
	}
	defer s.reg.Unregister(h)
	s.log.Info("webview mounted", zap.String("handle", h.id), zap.String("remote", r.RemoteAddr))

	for {
		var m Message
		if err := wsjson.Read(ctx, conn, &m); err != nil {
			s.logClose(h, err)
			return
		}
		switch m.Type {
		case MsgLoaded:
			h.mu.Lock()
			h.url = m.URL
			h.mu.Unlock()
			s.onLoad(h)
		case MsgLog:
			s.log.Info("hosted document", zap.String("handle", h.id),
				zap.String("level", m.Level), zap.String("message", m.Message))
		default:
			s.log.Debug("ignoring frame", zap.String("handle", h.id), zap.String("type", m.Type))
		}
	}
}

func (s *SocketServer) logClose(h *Socket, err error) {
	status := websocket.CloseStatus(err)
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
		errors.Is(err, context.Canceled) {
		s.log.Info("webview unmounted", zap.String("handle", h.id))
		return
	}
	s.log.Warn("webview dropped", zap.String("handle", h.id), zap.Error(err))
}
