package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/forcegraph/pkg/layout"
	"github.com/matzehuels/forcegraph/pkg/observability"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait).
	pingPeriod = 54 * time.Second

	// Gestures are tiny; anything larger is not ours.
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// session is one viewer. Its engine is touched only by run.
type session struct {
	id       string
	conn     *websocket.Conn
	engine   *layout.Engine
	inbox    chan layout.Message
	reload   <-chan struct{}
	interval time.Duration
	logger   *log.Logger
	frame    frameMessage
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	e, reload, err := s.engine(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if e == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	sess := &session{
		id:       uuid.NewString(),
		conn:     conn,
		engine:   e,
		inbox:    make(chan layout.Message, 16),
		reload:   reload,
		interval: s.opts.FrameInterval,
	}
	sess.logger = s.logger.With("session", sess.id)

	s.sessionsMu.Lock()
	s.sessions[sess.id] = sess
	s.sessionsMu.Unlock()
	s.wg.Add(1)

	hooks := observability.Session()
	start := time.Now()
	hooks.OnSessionOpen(s.ctx, sess.id)
	sess.logger.Info("viewer connected", "remote", r.RemoteAddr)

	defer func() {
		s.sessionsMu.Lock()
		delete(s.sessions, sess.id)
		s.sessionsMu.Unlock()
		hooks.OnSessionClose(s.ctx, sess.id, time.Since(start))
		sess.logger.Info("viewer disconnected", "duration", time.Since(start))
		s.wg.Done()
	}()

	sess.run(s.ctx)
}

// run owns the engine: it applies gestures, ticks while the simulation is
// warm and writes every frame. It returns when the viewer leaves, the node
// set is replaced or ctx is done.
func (c *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.conn.Close()

	go c.readPump(ctx, cancel)

	hooks := observability.Session()
	frames := time.NewTicker(c.interval)
	defer frames.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := c.writeFrame(ctx, c.engine.Project()); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			c.close(websocket.CloseGoingAway, "")
			return

		case <-c.reload:
			_ = c.writeJSON(reloadMessage{Type: typeReload})
			c.close(websocket.CloseNormalClosure, "reload")
			return

		case msg := <-c.inbox:
			hooks.OnMessage(ctx, kind(msg))
			if err := c.writeFrame(ctx, c.engine.Update(msg)); err != nil {
				return
			}

		case <-frames.C:
			if !c.engine.Running() {
				continue
			}
			if err := c.writeFrame(ctx, c.engine.Update(layout.Tick{})); err != nil {
				return
			}

		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readPump decodes gestures and forwards them to run.
func (c *session) readPump(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				c.logger.Warn("websocket read error", "err", err)
			}
			return
		}

		var cm clientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			c.logger.Warn("malformed message", "err", err)
			continue
		}
		msg, err := cm.message()
		if err != nil {
			c.logger.Warn("ignoring message", "err", err)
			continue
		}

		select {
		case c.inbox <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (c *session) writeFrame(ctx context.Context, frame []layout.Placement) error {
	c.frame.fill(c.engine, frame)
	if err := c.writeJSON(&c.frame); err != nil {
		return err
	}
	observability.Session().OnFrame(ctx, c.frame.Alpha)
	return nil
}

func (c *session) writeJSON(v any) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(v); err != nil {
		c.logger.Debug("websocket write failed", "err", err)
		return err
	}
	return nil
}

func (c *session) close(code int, reason string) {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}

func kind(msg layout.Message) string {
	switch msg.(type) {
	case layout.DragStart:
		return typeDragStart
	case layout.DragMove:
		return typeDragMove
	case layout.DragEnd:
		return typeDragEnd
	case layout.Tick:
		return "tick"
	}
	return "unknown"
}
