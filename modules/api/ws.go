package api

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/example/glamup-shop-verse/modules/currency"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Message types of the rates stream.
const (
	streamRates    = "rates"
	streamWarning  = "warning"
	streamPong     = "pong"
	streamError    = "error"
	clientPing     = "ping"
	clientSnapshot = "snapshot"
)

// StreamMessage is a message sent over the rates WebSocket.
type StreamMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// RatesFeed publishes the current rate table and refresh outcomes.
type RatesFeed interface {
	Snapshot() currency.Snapshot
	Subscribe() (<-chan currency.Event, func())
}

var _ RatesFeed = (*currency.RatesService)(nil)

// streamConn serializes writes to one connection; the read loop and the
// event forwarder both write.
type streamConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *streamConn) send(msgType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[api] Failed to marshal %s payload: %v", msgType, err)
		return
	}
	s.write(StreamMessage{Type: msgType, Payload: data})
}

func (s *streamConn) sendError(message string) {
	s.write(StreamMessage{Type: streamError, Error: message})
}

func (s *streamConn) write(msg StreamMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[api] WebSocket write failed: %v", err)
	}
}

// RatesStream pushes rate table changes and refresh warnings to WebSocket
// clients. Every client receives the current snapshot on connect.
type RatesStream struct {
	feed        RatesFeed
	connections sync.Map // connection id -> *streamConn
}

// NewRatesStream creates a stream over feed.
func NewRatesStream(feed RatesFeed) *RatesStream {
	return &RatesStream{feed: feed}
}

// Upgrade rejects plain HTTP requests to the stream endpoint.
func (s *RatesStream) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleWebSocket serves one client until it disconnects.
func (s *RatesStream) HandleWebSocket(c *websocket.Conn) {
	id := uuid.New().String()
	conn := &streamConn{conn: c}
	s.connections.Store(id, conn)

	events, cancel := s.feed.Subscribe()
	done := make(chan struct{})
	var wg sync.WaitGroup

	defer func() {
		close(done)
		cancel()
		wg.Wait()
		s.connections.Delete(id)
		c.Close()
	}()

	log.Printf("[api] Rates stream connected: %s", id)
	s.sendSnapshot(conn)

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.forward(conn, events, done)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[api] Rates stream %s error: %v", id, err)
			}
			break
		}

		var msg StreamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			conn.sendError("Invalid message format")
			continue
		}

		switch msg.Type {
		case clientPing:
			conn.write(StreamMessage{Type: streamPong})
		case clientSnapshot:
			s.sendSnapshot(conn)
		default:
			conn.sendError("Unknown message type: " + msg.Type)
		}
	}

	log.Printf("[api] Rates stream disconnected: %s", id)
}

func (s *RatesStream) forward(conn *streamConn, events <-chan currency.Event, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			switch e.Type {
			case currency.EventRates:
				conn.send(streamRates, e.Rates)
			case currency.EventWarning:
				conn.send(streamWarning, e.Warning)
			}
		}
	}
}

func (s *RatesStream) sendSnapshot(conn *streamConn) {
	snapshot := s.feed.Snapshot()
	conn.send(streamRates, snapshot)
}

// ConnectionCount returns the number of connected clients.
func (s *RatesStream) ConnectionCount() int {
	count := 0
	s.connections.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}
