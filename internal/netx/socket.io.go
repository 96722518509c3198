package netx

import (
	"net/http"
	"sync"

	"github.com/go-logr/logr"
	"github.com/zishang520/socket.io/servers/engine/v3"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"
)

// EventHandler handles one Socket.IO event from a client
type EventHandler func(client *socket.Socket, data ...any)

// Socket represents a wrapper around the Socket.IO server
type Socket struct {
	sock       *socket.Server
	log        logr.Logger
	Namespaces map[string]*Namespace
}

// NewSocket configures and creates the Socket.IO server
func NewSocket(log logr.Logger) *Socket {
	opts := socket.DefaultServerOptions()
	opts.SetPath("/socket.io")
	opts.SetTransports(types.NewSet(
		engine.Polling,   // HTTP long-polling transport
		engine.WebSocket, // WebSocket transport for real-time communication
	))
	opts.SetMaxHttpBufferSize(1e6)
	return &Socket{
		sock:       socket.NewServer(nil, opts),
		log:        log,
		Namespaces: make(map[string]*Namespace),
	}
}

// AddNamespace creates a new Socket.IO namespace and adds it to the server
func (s *Socket) AddNamespace(name string) *Namespace {
	namespace := &Namespace{
		name:      name,
		namespace: s.sock.Of(name, nil),
		log:       s.log.WithValues("namespace", name),
		events: map[string]EventHandler{
			"disconnect": func(client *socket.Socket, reason ...any) {},
		},
	}
	s.Namespaces[name] = namespace
	return namespace
}

// GetNamespace returns the desired namespace, creating it if needed
func (s *Socket) GetNamespace(name string) *Namespace {
	if namespace, ok := s.Namespaces[name]; ok {
		return namespace
	}
	return s.AddNamespace(name)
}

// Handler returns an HTTP handler for the Socket.IO server
func (s *Socket) Handler() http.Handler {
	return s.sock.ServeHandler(nil)
}

// Namespace represents a Socket.IO namespace with custom event handling
type Namespace struct {
	name      string
	namespace socket.Namespace
	log       logr.Logger
	mu        sync.Mutex
	events    map[string]EventHandler
}

// Name returns the namespace path
func (n *Namespace) Name() string {
	return n.name
}

// AddEvent registers a custom event handler for the namespace
func (n *Namespace) AddEvent(event string, f EventHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events[event] = f
}

// RegisterEvents activates all the event handlers for new client connections
func (n *Namespace) RegisterEvents() {
	n.mu.Lock()
	events := make(map[string]EventHandler, len(n.events))
	for event, f := range n.events {
		events[event] = f
	}
	n.mu.Unlock()

	n.namespace.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		n.log.V(1).Info("client connected", "id", client.Id())
		for event, f := range events {
			client.On(event, func(data ...any) { f(client, data...) })
		}
	})
}

// AddMiddleware adds a middleware to the namespace
func (n *Namespace) AddMiddleware(f func(client *socket.Socket, next func(*socket.ExtendedError))) {
	n.namespace.Use(f)
}

var (
	globalMu     sync.Mutex
	globalServer *Socket
)

// SetupGlobalServer creates the shared server with the panel namespaces
func SetupGlobalServer(log logr.Logger, namespaces ...string) *Socket {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalServer = NewSocket(log)
	for _, name := range namespaces {
		globalServer.AddNamespace(name)
	}
	return globalServer
}

// GetGlobalServer returns the shared server, or nil before setup
func GetGlobalServer() *Socket {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalServer
}

// GetHandler returns the HTTP handler of the shared server
func GetHandler() http.Handler {
	return GetGlobalServer().Handler()
}
