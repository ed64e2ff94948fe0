package api

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hns-tools/auctionwatch/internal/events"
	"github.com/hns-tools/auctionwatch/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	authWait       = 30 * time.Second
	maxMessageSize = 4096
)

var (
	errUnknownAction = errors.New("unknown action")
	errAuthRequired  = errors.New("authentication required")
)

// clientFrame is one control message from a consumer.
type clientFrame struct {
	Action  string `json:"action"`
	Secret  string `json:"secret,omitempty"`
	Channel string `json:"channel,omitempty"`
}

// eventFrame is one delivered event.
type eventFrame struct {
	Channel string       `json:"channel"`
	Event   events.Type  `json:"event"`
	Payload events.Event `json:"payload"`
}

type ackFrame struct {
	OK     bool   `json:"ok"`
	Action string `json:"action,omitempty"`
	Error  string `json:"error,omitempty"`
}

// wsSession serializes writes: acks come from the reader goroutine and
// deliveries from the writer goroutine, and the connection permits only
// one concurrent writer.
type wsSession struct {
	conn *websocket.Conn

	mu sync.Mutex
}

func (s *wsSession) writeJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

// EventsHandler upgrades a consumer connection to a websocket and bridges
// it to the fan-out hub. The first frame must authenticate with the
// shared secret; afterwards the consumer joins and leaves named channels
// and receives every event published to them while joined. Delivery is
// best-effort: events dropped by the hub on a full queue are gone.
type EventsHandler struct {
	hub *events.Hub
	log *logger.Logger

	upgrader websocket.Upgrader
}

// NewEventsHandler creates the websocket event feed handler.
func NewEventsHandler(hub *events.Hub, log *logger.Logger) *EventsHandler {
	return &EventsHandler{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origin policy is enforced by the CORS middleware layer
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debugf("websocket upgrade failed: remote=%s err=%v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	session := &wsSession{conn: conn}

	if !h.authenticate(session) {
		return
	}

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	// writer: pump hub deliveries to the connection
	done := make(chan struct{})
	go h.writeLoop(session, sub, done)
	defer close(done)

	// reader: join/leave control frames
	for {
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debugf("websocket closed: remote=%s err=%v", r.RemoteAddr, err)
			}
			return
		}

		switch frame.Action {
		case "join":
			h.hub.Join(sub, frame.Channel)
			h.ack(session, frame.Action, nil)
		case "leave":
			h.hub.Leave(sub, frame.Channel)
			h.ack(session, frame.Action, nil)
		default:
			h.ack(session, frame.Action, errUnknownAction)
		}
	}
}

// authenticate reads the first frame and checks the shared secret.
func (h *EventsHandler) authenticate(session *wsSession) bool {
	session.conn.SetReadDeadline(time.Now().Add(authWait))
	defer session.conn.SetReadDeadline(time.Time{})

	var frame clientFrame
	if err := session.conn.ReadJSON(&frame); err != nil {
		return false
	}

	if frame.Action != "auth" {
		h.ack(session, frame.Action, errAuthRequired)
		return false
	}

	if err := h.hub.Authenticate(frame.Secret); err != nil {
		h.ack(session, frame.Action, err)
		return false
	}

	h.ack(session, frame.Action, nil)
	return true
}

// writeLoop forwards hub deliveries until the subscriber channel closes
// or the reader finishes.
func (h *EventsHandler) writeLoop(session *wsSession, sub *events.Subscriber, done <-chan struct{}) {
	for {
		select {
		case delivery, ok := <-sub.C():
			if !ok {
				return
			}
			frame := eventFrame{
				Channel: delivery.Channel,
				Event:   delivery.Event.Type(),
				Payload: delivery.Event,
			}
			if err := session.writeJSON(frame); err != nil {
				session.conn.Close()
				return
			}
		case <-done:
			return
		}
	}
}

// ack sends a control response; errors are reported by message only.
func (h *EventsHandler) ack(session *wsSession, action string, err error) {
	frame := ackFrame{OK: err == nil, Action: action}
	if err != nil {
		frame.Error = err.Error()
	}

	if writeErr := session.writeJSON(frame); writeErr != nil {
		h.log.Debugf("websocket ack failed: %v", writeErr)
	}
}
