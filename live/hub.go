package live

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mlbb-arena/arena-backend/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// StatusEvent публикуется при смене производного статуса турнира.
type StatusEvent struct {
	Type         string                  `json:"type"`
	TournamentID int                     `json:"tournament_id"`
	OldStatus    models.TournamentStatus `json:"old_status"`
	NewStatus    models.TournamentStatus `json:"new_status"`
}

const EventTournamentStatus = "TOURNAMENT_STATUS_CHANGED"

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	isClosed bool
	mu       sync.Mutex
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 16),
	}
}

// Hub рассылает события статусов всем подключённым клиентам.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	clients    map[*Client]bool
	logger     *slog.Logger
	mu         sync.RWMutex
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.logger.Debug("live client registered", slog.Int("clients", len(h.clients)))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				client.mu.Lock()
				if !client.isClosed {
					close(client.send)
					client.isClosed = true
				}
				client.mu.Unlock()
				delete(h.clients, client)
				h.logger.Debug("live client unregistered", slog.Int("clients", len(h.clients)))
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// BroadcastStatusChange отправляет событие перехода всем клиентам.
// Клиенты с заполненным буфером пропускаются, а не блокируют рассылку.
func (h *Hub) BroadcastStatusChange(tournamentID int, oldStatus, newStatus models.TournamentStatus) {
	event := StatusEvent{
		Type:         EventTournamentStatus,
		TournamentID: tournamentID,
		OldStatus:    oldStatus,
		NewStatus:    newStatus,
	}
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal status event", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.mu.Lock()
		if client.isClosed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.send <- message:
		default:
			h.logger.Warn("live client send buffer full, dropping event")
		}
		client.mu.Unlock()
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		// Клиенты ничего не присылают, соединение держится ради пушей.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
