// Package observer streams a running grid to read-only websocket viewers.
// Viewers receive a keyframe when they join and the coalesced changed regions
// after every tick. A viewer that falls behind is resynchronized with a new
// keyframe instead of being sent a backlog.
package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"mad-sand/internal/render"
)

const sendBuffer = 64

type client struct {
	id      string
	out     chan []byte
	needKey bool
}

// Hub is an engine.Presenter that fans frames out to websocket clients.
// Queue and Present must be called from the simulation goroutine; the HTTP
// handler may run on any goroutine.
type Hub struct {
	log   *log.Logger
	frame *render.Frame

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	clients map[*client]struct{}

	regions []render.Rect
	pending [][]byte
}

// NewHub tracks a width x height grid.
func NewHub(width, height, tile int, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		log:   logger,
		frame: render.NewFrame(width, height, tile),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: map[*client]struct{}{},
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Queue(batch []render.Pixel) { h.frame.Apply(batch) }

// Present encodes the regions changed since the last call and hands them to
// every client. Clients that joined or overflowed get a keyframe instead.
func (h *Hub) Present() error {
	h.regions = h.frame.Flush(h.regions[:0])

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return nil
	}

	h.pending = h.pending[:0]
	for _, r := range h.regions {
		h.pending = append(h.pending, encodeRegion(KindRegion, h.frame, r))
	}

	var key []byte
	for c := range h.clients {
		if c.needKey {
			if key == nil {
				key = encodeRegion(KindKeyframe, h.frame, render.Rect{MaxX: h.frame.Width(), MaxY: h.frame.Height()})
			}
			c.needKey = !trySend(c.out, key)
			continue
		}
		for _, msg := range h.pending {
			if !trySend(c.out, msg) {
				c.needKey = true
				break
			}
		}
	}
	return nil
}

func trySend(ch chan []byte, msg []byte) bool {
	select {
	case ch <- msg:
		return true
	default:
		return false
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Handler returns the HTTP handler: GET / serves the hello document as JSON
// and /ws upgrades to the stream.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.serveWS)
	mux.HandleFunc("/", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(h.hello())
	})
	return mux
}

func (h *Hub) hello() Hello {
	return Hello{Type: "HELLO", ProtocolVersion: Version, Width: h.frame.Width(), Height: h.frame.Height()}
}

func (h *Hub) serveWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &client{
		id:      fmt.Sprintf("V%d", h.nextID.Add(1)),
		out:     make(chan []byte, sendBuffer),
		needKey: true,
	}
	// Registered before the hello so a viewer that has read the hello is
	// guaranteed to receive the next Present.
	h.add(c)
	defer h.remove(c)
	hello, _ := json.Marshal(h.hello())
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		return
	}
	h.log.Printf("observer %s joined from %s", c.id, r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	writeErr := make(chan error, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				writeErr <- ctx.Err()
				return
			case b := <-c.out:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
					writeErr <- err
					return
				}
			}
		}
	}()

	// Viewers are read-only; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	cancel()
	h.log.Printf("observer %s left", c.id)

	select {
	case <-writeErr:
	case <-time.After(500 * time.Millisecond):
	}
}

// Serve listens on addr until ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx2)
	}()
	h.log.Printf("observer listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("observer: %w", err)
	}
	return nil
}
