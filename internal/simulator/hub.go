package simulator

import (
	"path/filepath"
	"sync"

	"github.com/kbukum/ranchkit/logger"
)

// Client is one WebSocket connection registered with the hub.
type Client struct {
	id     string
	events chan []byte

	mu       sync.Mutex
	userID   string
	name     string
	channels map[string]struct{}
	closed   bool
}

func newClient(id string) *Client {
	return &Client{
		id:       id,
		events:   make(chan []byte, 256),
		channels: make(map[string]struct{}),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() string { return c.id }

// UserID returns the authenticated user, or "".
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Client) authenticate(userID, name string) {
	c.mu.Lock()
	c.userID, c.name = userID, name
	c.mu.Unlock()
}

func (c *Client) subscribe(channels ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range channels {
		c.channels[ch] = struct{}{}
	}
}

// matches reports whether one of the client's subscriptions matches the
// broadcast channel. Either side may be a glob. The empty pattern matches
// every client. A malformed subscription is skipped and its error returned
// when nothing else matched.
func (c *Client) matches(pattern string) (bool, error) {
	if pattern == "" {
		return true, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for ch := range c.channels {
		ok, err := filepath.Match(ch, pattern)
		if err == nil && !ok {
			ok, err = filepath.Match(pattern, ch)
		}
		if ok {
			return true, nil
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return false, firstErr
}

// Events returns the outbound frame channel.
func (c *Client) Events() <-chan []byte { return c.events }

// Send queues a frame. It returns false when the client is closed or too
// slow to keep up.
func (c *Client) Send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.events <- data:
		return true
	default:
		logger.Get("simulator").Warn("Client channel full, dropping message", logger.Fields("client_id", c.id))
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
}

// Hub tracks WebSocket clients and fans out broadcasts.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcast
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	log        *logger.Logger
}

type broadcast struct {
	pattern string
	data    []byte
}

// NewHub creates a hub. Run must be started before clients register.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcast, 256),
		done:       make(chan struct{}),
		log:        logger.Get("simulator").WithComponent("hub"),
	}
}

// Run is the hub's event loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("Client registered", logger.Fields("client_id", client.id, "total_clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("Client unregistered", logger.Fields("client_id", client.id, "total_clients", total))

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// Stop closes every client and ends Run. Safe to call multiple times.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.close()
		delete(h.clients, id)
	}
}

// Register adds a client. It returns false once the hub is stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its event channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends data to every client subscribed to a channel matching the
// glob pattern, or to every client when pattern is empty.
func (h *Hub) Broadcast(pattern string, data []byte) {
	select {
	case h.broadcast <- broadcast{pattern: pattern, data: data}:
	case <-h.done:
	}
}

func (h *Hub) fanOut(msg broadcast) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	matchCount := 0
	for _, client := range h.clients {
		matched, err := client.matches(msg.pattern)
		if err != nil {
			h.log.Warn("Pattern match error", logger.Fields("pattern", msg.pattern, "client_id", client.id, logger.FieldError, err.Error()))
			continue
		}
		if matched && client.Send(msg.data) {
			matchCount++
		}
	}
	h.log.Debug("Broadcast sent", logger.Fields("pattern", msg.pattern, "match_count", matchCount))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Name returns the authenticated user's display name.
func (c *Client) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}
