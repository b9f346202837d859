package sio

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/Comcast/rebind/core"

	"github.com/gorilla/websocket"
)

// Hub is a Couplings for websocket clients.
//
// Clients send Mutations as JSON text messages.  Every client
// receives the current markup when it connects and after each
// applied mutation (see Rendered).
type Hub struct {
	Upgrader websocket.Upgrader

	// Snapshot, if not nil, gives the markup to send to a new
	// client.
	Snapshot func() string

	// Verbose turns on logging.
	Verbose bool

	incoming chan *Mutation

	// conns maps each connection to its outbound channel.
	conns sync.Map
}

// NewHub makes a Hub.  Use it as an http.Handler.
func NewHub() *Hub {
	return &Hub{
		incoming: make(chan *Mutation),
	}
}

func (h *Hub) logf(format string, args ...interface{}) {
	if h.Verbose {
		log.Printf(format, args...)
	}
}

// Start does nothing.
func (h *Hub) Start(ctx context.Context) error {
	return nil
}

// IO returns the channel of Mutations from clients.
func (h *Hub) IO(ctx context.Context) (chan *Mutation, error) {
	return h.incoming, nil
}

// Stop closes all connections.
func (h *Hub) Stop(ctx context.Context) error {
	h.conns.Range(func(k, v interface{}) bool {
		k.(*websocket.Conn).Close()
		return true
	})
	return nil
}

// Broadcast queues the markup for every client.  A client that isn't
// keeping up misses it.
func (h *Hub) Broadcast(markup string) {
	h.conns.Range(func(k, v interface{}) bool {
		select {
		case v.(chan string) <- markup:
		default:
			h.logf("Hub client %v blocked", k.(*websocket.Conn).RemoteAddr())
		}
		return true
	})
}

// Rendered broadcasts the root's markup.  Use with Pump.OnRendered.
func (h *Hub) Rendered(ctx context.Context, root core.Node) {
	h.Broadcast(Markup(root))
}

// ServeHTTP upgrades the connection and then reads Mutations until
// the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade error", err)
		return
	}
	defer c.Close()

	ctx := r.Context()

	out := make(chan string, 32)
	if h.Snapshot != nil {
		out <- h.Snapshot()
	}
	h.conns.Store(c, out)
	defer h.conns.Delete(c)

	ctl := make(chan bool)
	defer close(ctl)

	go func() {
		for {
			select {
			case <-ctl:
				return
			case <-ctx.Done():
				return
			case markup := <-out:
				if err := c.WriteMessage(websocket.TextMessage, []byte(markup)); err != nil {
					h.logf("Hub write error %s", err)
					return
				}
			}
		}
	}()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			h.logf("Hub read error %s", err)
			return
		}
		m, err := ParseMutation(message)
		if err != nil {
			log.Printf("Hub ignoring message: %s", err)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case h.incoming <- m:
		}
	}
}
