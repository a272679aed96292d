package server

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/nodemap/pkg/errors"
	"github.com/matzehuels/nodemap/pkg/graph"
	"github.com/matzehuels/nodemap/pkg/render"
	"github.com/matzehuels/nodemap/pkg/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 4096
)

// Client to server message types.
const (
	msgDrag   = "drag"
	msgDrop   = "drop"
	msgResize = "resize"
)

// Server to client message types.
const (
	msgLayout = "layout"
	msgFrame  = "frame"
	msgError  = "error"
)

// inbound is a message from a websocket client.
type inbound struct {
	Type   string  `json:"type"`
	Node   int     `json:"node"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// outbound is a message to a websocket client.
type outbound struct {
	Type    string        `json:"type"`
	Layout  *graph.Layout `json:"layout,omitempty"`
	Frame   *render.Frame `json:"frame,omitempty"`
	Moving  bool          `json:"moving,omitempty"`
	Error   string        `json:"error,omitempty"`
	Message string        `json:"message,omitempty"`
}

// handleLive upgrades to a websocket. The client first receives the
// current layout, then a frame whenever the surface changes. Drag, drop
// and resize messages are applied to the session in order.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "session", sess.ID, "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outbox := make(chan outbound, 16)
	go s.readLoop(ctx, cancel, conn, sess, outbox)
	s.writeLoop(ctx, conn, sess, outbox)
}

// readLoop applies client messages until the connection fails.
func (s *Server) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sess *session.Session, outbox chan<- outbound) {
	defer cancel()
	conn.SetReadLimit(maxMessage)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed", "session", sess.ID, "err", err)
			}
			return
		}
		sess.Touch()
		if err := s.apply(ctx, sess, data); err != nil {
			_, code := statusOf(err)
			select {
			case outbox <- outbound{Type: msgError, Error: string(code), Message: errors.UserMessage(err)}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Server) apply(ctx context.Context, sess *session.Session, data []byte) error {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode message")
	}
	switch msg.Type {
	case msgDrag:
		return sess.Drag(ctx, msg.Node, msg.X, msg.Y)
	case msgDrop:
		return sess.Drop(ctx, msg.Node)
	case msgResize:
		return sess.Resize(ctx, msg.Width, msg.Height)
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown message type %q", msg.Type)
	}
}

// writeLoop is the only writer of conn.
func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, sess *session.Session, outbox <-chan outbound) {
	l, err := sess.Snapshot(ctx)
	if err != nil {
		return
	}
	if err := s.send(conn, outbound{Type: msgLayout, Layout: &l}); err != nil {
		return
	}

	frames := time.NewTicker(s.cfg.FrameInterval)
	defer frames.Stop()
	pings := time.NewTicker(pingPeriod)
	defer pings.Stop()

	last := sess.Revision()
	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-sess.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"), time.Now().Add(writeWait))
			return
		case msg := <-outbox:
			if err := s.send(conn, msg); err != nil {
				return
			}
		case <-frames.C:
			rev := sess.Revision()
			if rev == last {
				continue
			}
			last = rev
			moving, err := sess.Moving(ctx)
			if err != nil {
				return
			}
			frame := sess.Frame()
			if err := s.send(conn, outbound{Type: msgFrame, Frame: &frame, Moving: moving}); err != nil {
				return
			}
		case <-pings.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *Server) send(conn *websocket.Conn, msg outbound) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
