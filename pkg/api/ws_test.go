package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/hns-tools/auctionwatch/internal/events"
	"github.com/hns-tools/auctionwatch/internal/logger"
)

func dialEventsHandler(t *testing.T, hub *events.Hub) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(NewEventsHandler(hub, logger.NewNopLogger()))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame clientFrame) ackFrame {
	t.Helper()

	require.NoError(t, conn.WriteJSON(frame))

	var ack ackFrame
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&ack))
	return ack
}

func TestEventsHandler_AuthAndDelivery(t *testing.T) {
	hub := events.NewHub("secret", 16, logger.NewNopLogger())
	conn := dialEventsHandler(t, hub)

	ack := sendFrame(t, conn, clientFrame{Action: "auth", Secret: "secret"})
	require.True(t, ack.OK)

	ack = sendFrame(t, conn, clientFrame{Action: "join", Channel: events.ChannelAuctions})
	require.True(t, ack.OK)

	hub.Publish(events.ChannelAuctions, events.Bid{Name: "alice", Value: 5000})

	var frame struct {
		Channel string                 `json:"channel"`
		Event   string                 `json:"event"`
		Payload map[string]interface{} `json:"payload"`
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&frame))

	require.Equal(t, events.ChannelAuctions, frame.Channel)
	require.Equal(t, "BID", frame.Event)
	require.Equal(t, "alice", frame.Payload["name"])
	require.Equal(t, float64(5000), frame.Payload["value"])
}

func TestEventsHandler_BadSecret(t *testing.T) {
	hub := events.NewHub("secret", 16, logger.NewNopLogger())
	conn := dialEventsHandler(t, hub)

	ack := sendFrame(t, conn, clientFrame{Action: "auth", Secret: "wrong"})
	require.False(t, ack.OK)
	require.NotEmpty(t, ack.Error)

	// the server closes the connection after a failed handshake
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var discard ackFrame
	require.Error(t, conn.ReadJSON(&discard))
}

func TestEventsHandler_ActionBeforeAuthRejected(t *testing.T) {
	hub := events.NewHub("secret", 16, logger.NewNopLogger())
	conn := dialEventsHandler(t, hub)

	ack := sendFrame(t, conn, clientFrame{Action: "join", Channel: events.ChannelAuctions})
	require.False(t, ack.OK)
}

func TestEventsHandler_JoinLeave(t *testing.T) {
	hub := events.NewHub("secret", 16, logger.NewNopLogger())
	conn := dialEventsHandler(t, hub)

	require.True(t, sendFrame(t, conn, clientFrame{Action: "auth", Secret: "secret"}).OK)
	require.True(t, sendFrame(t, conn, clientFrame{Action: "join", Channel: events.ChannelStats}).OK)
	require.True(t, sendFrame(t, conn, clientFrame{Action: "leave", Channel: events.ChannelStats}).OK)

	hub.Publish(events.ChannelStats, events.BlockStats{TxCount: 1})

	// nothing may arrive after the leave
	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var frame eventFrame
	require.Error(t, conn.ReadJSON(&frame))
}

func TestEventsHandler_UnknownAction(t *testing.T) {
	hub := events.NewHub("secret", 16, logger.NewNopLogger())
	conn := dialEventsHandler(t, hub)

	require.True(t, sendFrame(t, conn, clientFrame{Action: "auth", Secret: "secret"}).OK)

	ack := sendFrame(t, conn, clientFrame{Action: "subscribe"})
	require.False(t, ack.OK)
	require.Equal(t, "unknown action", ack.Error)
}
