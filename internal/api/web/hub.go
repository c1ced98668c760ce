package web

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"multicap-dx/internal/domain/entity"
	"multicap-dx/internal/domain/port"
)

const (
	clientQueueSize = 16
	writeWait       = time.Second
	pingPeriod      = 30 * time.Second
)

// wsMessage то, что уходит подписчикам /ws
type wsMessage struct {
	Type      entity.EventType   `json:"type"`
	FrameID   string             `json:"frame_id"`
	Source    entity.FrameSource `json:"source"`
	Warning   string             `json:"warning,omitempty"`
	Report    *entity.Report     `json:"report,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan wsMessage
}

// Hub рассылает события съёмки и анализа браузерам по websocket.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
}

// NewHub создаёт пустой хаб
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Publish кладёт событие в очередь каждого клиента; переполненные очереди пропускаются.
func (h *Hub) Publish(ctx context.Context, event entity.Event) error {
	msg := wsMessage{
		Type:      event.Type,
		FrameID:   event.FrameID,
		Source:    event.Source,
		Warning:   event.Warning,
		Timestamp: event.Timestamp,
	}
	if event.Analysis != nil {
		report := event.Analysis.Report()
		msg.Report = &report
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("Client queue full, skipping %s event", event.Type)
		}
	}
	return nil
}

// ClientCount число подключённых клиентов
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP принимает websocket-подключение
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading to websocket from %s: %v", r.RemoteAddr, err)
		return
	}

	c := &client{conn: conn, send: make(chan wsMessage, clientQueueSize)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go h.writeLoop(c, done)
	h.readLoop(c)
	close(done)
}

// readLoop читает до закрытия соединения, входящие сообщения игнорируются
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

var _ port.EventPublisher = (*Hub)(nil)
