package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/services"
)

// Server upgrades HTTP requests on /ws and runs one receive loop per
// connection, dispatching frames to the session one at a time.
type Server struct {
	svc          *services.Service
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	log          *slog.Logger
}

func NewServer(svc *services.Service, pingInterval time.Duration, log *slog.Logger) *Server {
	return &Server{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		pingInterval: pingInterval,
		log:          log,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	conn := NewConn(ws)
	session := s.svc.NewSession(conn)

	done := make(chan struct{})
	defer close(done)

	if s.pingInterval > 0 {
		go s.keepalive(conn, done)
	}

	ctx := r.Context()
	for {
		messageType, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.log.Debug("Websocket read failed", "remote", r.RemoteAddr, "err", err)
			}
			break
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		session.HandleFrame(ctx, payload, messageType == websocket.BinaryMessage)
	}

	conn.markClosed()
	session.OnTransportClose()
}

func (s *Server) keepalive(conn *Conn, done <-chan struct{}) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
