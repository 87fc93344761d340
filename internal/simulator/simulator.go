package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/websocket"

	"github.com/kbukum/ranchkit/component"
	"github.com/kbukum/ranchkit/logger"
	"github.com/kbukum/ranchkit/server"
)

// Simulator serves the ranch REST API and live endpoint.
type Simulator struct {
	cfg     Config
	srv     *server.Server
	hub     *Hub
	ranches *ranchStore
	gen     *generator
	now     func() time.Time
	log     *logger.Logger

	mu      sync.Mutex
	stopGen chan struct{}
	wg      sync.WaitGroup
}

var _ component.Component = (*Simulator)(nil)
var _ component.Describable = (*Simulator)(nil)

// New creates a simulator and starts its hub. Start binds the port; Handler
// can be served directly instead.
func New(cfg Config) (*Simulator, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get("simulator")
	s := &Simulator{
		cfg:     cfg,
		srv:     server.New(cfg.Server, log),
		hub:     NewHub(),
		ranches: newRanchStore(time.Now),
		gen:     newGenerator(cfg.Seed, time.Now),
		now:     time.Now,
		log:     log,
	}
	go s.hub.Run()

	s.srv.ApplyMiddleware()
	s.srv.RegisterHealth("simulator", func(ctx context.Context) []component.Health {
		return []component.Health{s.Health(ctx)}
	})
	s.routes(s.srv.Engine())
	s.srv.Handle("/ws", websocket.Handler(s.serveWS))
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Simulator) Handler() http.Handler { return s.srv.Handler() }

// Addr returns the bound address once started.
func (s *Simulator) Addr() string { return s.srv.Addr() }

// Hub returns the client hub.
func (s *Simulator) Hub() *Hub { return s.hub }

// Name returns the component name.
func (s *Simulator) Name() string { return "simulator" }

// Start binds the HTTP port and starts the event generator.
func (s *Simulator) Start(ctx context.Context) error {
	if err := s.srv.Start(ctx); err != nil {
		return err
	}
	if s.cfg.EventInterval > 0 {
		s.mu.Lock()
		s.stopGen = make(chan struct{})
		stop := s.stopGen
		s.mu.Unlock()
		s.wg.Add(1)
		go s.generate(stop)
	}
	s.log.Info("Simulator started", logger.Fields(
		"addr", s.srv.Addr(),
		"event_interval", s.cfg.EventInterval.String(),
	))
	return nil
}

// Stop ends the generator, disconnects clients and shuts the server down.
func (s *Simulator) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopGen != nil {
		close(s.stopGen)
		s.stopGen = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
	s.hub.Stop()
	return s.srv.Stop(ctx)
}

// Health reports the number of connected clients.
func (s *Simulator) Health(_ context.Context) component.Health {
	return component.Health{
		Name:    s.Name(),
		Status:  component.StatusHealthy,
		Message: formatClients(s.hub.ClientCount()),
	}
}

// Describe returns the startup summary line.
func (s *Simulator) Describe() component.Description {
	return component.Description{Name: "Simulator", Type: "simulator", Details: s.srv.Addr()}
}

// Publish broadcasts a message of msgType to clients subscribed to channel.
func (s *Simulator) Publish(channel, msgType string, data any) error {
	frame, err := encodeMessage(msgType, data, s.now())
	if err != nil {
		return err
	}
	s.hub.Broadcast(channel, frame)
	return nil
}

func (s *Simulator) generate(stop <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.EventInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ev := s.gen.next(s.ranches.ids())
			if err := s.Publish("ranch_"+ev.ranchID, ev.msgType, ev.data); err != nil {
				s.log.Warn("Event not published", logger.ErrorFields("generate", err))
			}
		}
	}
}

type wireMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

func encodeMessage(msgType string, data any, now time.Time) ([]byte, error) {
	msg := wireMessage{Type: msgType, Timestamp: now.UnixMilli()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}

func formatClients(n int) string {
	if n == 1 {
		return "1 client"
	}
	return fmt.Sprintf("%d clients", n)
}

// Routes lists the REST routes served by the simulator.
func (s *Simulator) Routes() gin.RoutesInfo { return s.srv.Engine().Routes() }
