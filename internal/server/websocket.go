package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/abdulateeb/Agentic-Chat/internal/registry"
	"github.com/abdulateeb/Agentic-Chat/pkg/api"
	"github.com/abdulateeb/Agentic-Chat/pkg/log"
)

// Socket adapts a WebSocket connection to the registry's Conn. Writes are
// serialized, and every write carries a deadline
type Socket struct {
	conn      *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	wsBufferSize   = 1024
)

var _ registry.Conn = (*Socket)(nil)

// NewSocket wraps an upgraded connection
func NewSocket(conn *websocket.Conn) *Socket {
	return &Socket{
		conn: conn,
		done: make(chan struct{}),
	}
}

// Send writes one text message. The write deadline is the earlier of the
// context deadline and the default write wait
func (s *Socket) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.conn.SetWriteDeadline(writeDeadline(ctx))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame and releases the connection. It is safe to call
// more than once
func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.mu.Unlock()

		err = s.conn.Close()
	})
	return err
}

func (s *Socket) ping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.PingMessage, nil) == nil
}

func (s *Socket) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if !s.ping() {
				return
			}
		}
	}
}

func (s *Server) handleWebSocket(c *gin.Context) {
	session := api.SessionID(c.Param("sessionID"))
	workflow := api.WorkflowID(c.Param("workflowID"))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  wsBufferSize,
		WriteBufferSize: wsBufferSize,
		CheckOrigin:     s.originAllowed,
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed",
			log.SessionID(session),
			log.Error(err))
		return
	}

	sock := NewSocket(conn)
	s.registry.Connect(sock, session, workflow)
	go sock.keepAlive()

	s.readMessages(c.Request.Context(), sock, session)

	s.registry.Release(session, sock)
	_ = sock.Close()
	slog.Info("WebSocket session ended",
		log.SessionID(session),
		log.WorkflowID(workflow))
}

// readMessages acknowledges every inbound message until the connection
// fails or is closed
func (s *Server) readMessages(
	ctx context.Context, sock *Socket, session api.SessionID,
) {
	conn := sock.conn
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway,
			) {
				slog.Warn("WebSocket read failed",
					log.SessionID(session),
					log.Error(err))
			}
			return
		}

		slog.Debug("Received subscriber message",
			log.SessionID(session),
			slog.Int("size", len(message)))

		err = s.registry.Send(ctx, session, api.NewAck(string(message)))
		if err != nil {
			slog.Warn("Failed to acknowledge message",
				log.SessionID(session),
				log.Error(err))
		}
	}
}

func writeDeadline(ctx context.Context) time.Time {
	res := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(res) {
		return d
	}
	return res
}
