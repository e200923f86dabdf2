package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; restrict in production
	},
}

const (
	// Time allowed to write an event to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// wsCommand is the client-to-server message format. Clients may subscribe to
// a ticker or ping the connection; everything else flows server-to-client as
// ScanEvents.
type wsCommand struct {
	Action string `json:"action"`
	Ticker string `json:"ticker,omitempty"`
}

// handleWebSocket upgrades HTTP connections to WebSocket and streams scan
// progress and completion events to the client.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api: websocket upgrade: %v", err)
		return
	}

	client := &eventClient{
		hub:  s.events,
		send: make(chan ScanEvent, 256),
	}
	s.events.register(client)

	go wsWritePump(conn, client)
	go wsReadPump(conn, client)
}

// wsReadPump consumes client commands until the connection drops, then
// unregisters the client.
func wsReadPump(conn *websocket.Conn, client *eventClient) {
	defer func() {
		client.hub.unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("api: websocket read: %v", err)
			}
			break
		}

		var cmd wsCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			continue
		}

		var reply ScanEvent
		switch cmd.Action {
		case "subscribe":
			reply = ScanEvent{Kind: EventSubscribed, Ticker: cmd.Ticker}
		case "ping":
			reply = ScanEvent{Kind: EventPong}
		default:
			continue
		}

		// Non-blocking: the hub may have dropped this client already.
		select {
		case client.send <- reply:
		default:
		}
	}
}

// wsWritePump streams hub events to the connection and keeps it alive with
// pings.
func wsWritePump(conn *websocket.Conn, client *eventClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case ev, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub dropped the client
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				return
			}

			// Flush queued events
			n := len(client.send)
			for i := 0; i < n; i++ {
				if err := writeEvent(conn, <-client.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev ScanEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
