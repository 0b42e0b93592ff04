// Package preview streams presented frames to websocket clients so the
// sign can be watched remotely while it runs headless.
package preview

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Server fans presented frames out to connected websocket clients as JSON
// payloads with base64 pixel data, throttled to spare slow links.
type Server struct {
	w, h     int
	throttle time.Duration

	mu       sync.Mutex
	lastEmit time.Time
	frameID  uint64
	clients  map[*client]bool

	start time.Time
}

// client serializes writes to one connection; the websocket connection
// supports only one concurrent writer.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(payload)
}

func (c *client) writeLocked(payload []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// New returns a preview server for a display of the given dimensions.
func New(w, h int) *Server {
	return &Server{
		w:        w,
		h:        h,
		throttle: 50 * time.Millisecond, // ~20 FPS to clients
		clients:  map[*client]bool{},
		start:    time.Now(),
	}
}

type framePayload struct {
	Frame uint64 `json:"frame"`
	W     int    `json:"w"`
	H     int    `json:"h"`
	RGB   string `json:"rgb"`
}

type topologyPayload struct {
	Type string `json:"type"`
	W    int    `json:"w"`
	H    int    `json:"h"`
}

// Broadcast publishes one presented frame. It is shaped to be used as a
// sign frame observer and never blocks the render path on client IO.
func (s *Server) Broadcast(rgb []byte) {
	s.mu.Lock()
	s.frameID++
	now := time.Now()
	if s.lastEmit.Add(s.throttle).After(now) || len(s.clients) == 0 {
		s.mu.Unlock()
		return
	}
	s.lastEmit = now
	payload, err := json.Marshal(framePayload{
		Frame: s.frameID,
		W:     s.w,
		H:     s.h,
		RGB:   base64.StdEncoding.EncodeToString(rgb),
	})
	if err != nil {
		s.mu.Unlock()
		return
	}
	conns := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.write(payload); err != nil {
			s.drop(c)
		}
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	_ = c.conn.Close()
}

// HandleFrames upgrades the connection and subscribes it to frames. The
// client's write lock is held across registration and the topology message,
// so a concurrent Broadcast can neither interleave with the topology write
// nor deliver a frame before it.
func (s *Server) HandleFrames(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	cl := &client{conn: conn}
	topo, _ := json.Marshal(topologyPayload{Type: "topology", W: s.w, H: s.h})

	cl.mu.Lock()
	s.mu.Lock()
	s.clients[cl] = true
	n := len(s.clients)
	s.mu.Unlock()
	err = cl.writeLocked(topo)
	cl.mu.Unlock()
	if err != nil {
		s.drop(cl)
		return
	}
	log.Info().Str("remote", r.RemoteAddr).Int("clients", n).Msg("preview client connected")

	// Reader loop only to notice disconnects.
	go func() {
		defer s.drop(cl)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// HandleHealth reports uptime and client count.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := len(s.clients)
	frames := s.frameID
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"uptime_s": time.Since(s.start).Seconds(),
		"clients":  n,
		"frames":   frames,
	})
}

// Routes returns a mux with the preview endpoints mounted.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFrames)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}
