package socketio

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/xrpscan/tezsync/logger"
)

const (
	pingInterval = 25 * time.Second
	pingTimeout  = 20 * time.Second
	writeWait    = 5 * time.Second
)

// Engine.IO and Socket.IO packet prefixes
const (
	packetOpen       = "0"
	packetPing       = "2"
	packetPong       = "3"
	packetConnect    = "40"
	packetDisconnect = "41"
	packetEvent      = "42"
)

var (
	hubInstance *Hub
	hubOnce     sync.Once
)

type EngineHandshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
}

func newHandshake(sid string, upgrades ...string) string {
	if upgrades == nil {
		upgrades = []string{}
	}
	js, _ := json.Marshal(EngineHandshake{
		SID:          sid,
		Upgrades:     upgrades,
		PingInterval: int(pingInterval / time.Millisecond),
		PingTimeout:  int(pingTimeout / time.Millisecond),
	})
	return packetOpen + string(js)
}

type ClientConnection struct {
	conn *websocket.Conn
	sid  string
	ns   string
	mu   sync.Mutex
}

func (c *ClientConnection) send(packet string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	defer c.conn.SetWriteDeadline(time.Time{})
	return c.conn.WriteMessage(websocket.TextMessage, []byte(packet))
}

// Hub is a minimal Socket.IO v4 server that only pushes events to clients
type Hub struct {
	clients  map[string]*ClientConnection
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*ClientConnection),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func GetHub() *Hub {
	hubOnce.Do(func() {
		hubInstance = NewHub()
	})
	return hubInstance
}

// ClientCount returns the number of connected websocket clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *ClientConnection) {
	h.mu.Lock()
	h.clients[c.sid] = c
	h.mu.Unlock()
}

func (h *Hub) unregister(c *ClientConnection) {
	h.mu.Lock()
	if h.clients[c.sid] == c {
		delete(h.clients, c.sid)
	}
	h.mu.Unlock()
}

func newSID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// parseConnect returns the namespace of a CONNECT packet
func parseConnect(raw string) (string, bool) {
	if !strings.HasPrefix(raw, packetConnect) {
		return "", false
	}
	rest := raw[len(packetConnect):]
	if !strings.HasPrefix(rest, "/") {
		return "/", true
	}
	ns, _, _ := strings.Cut(rest, ",")
	return ns, true
}

func connectAck(ns, sid string) string {
	if ns == "/" {
		return fmt.Sprintf(`%s{"sid":"%s"}`, packetConnect, sid)
	}
	return fmt.Sprintf(`%s%s,{"sid":"%s"}`, packetConnect, ns, sid)
}

// encodeEvent builds a Socket.IO EVENT packet for namespace ns
func encodeEvent(ns, name string, payload []byte) string {
	if ns == "/" {
		return fmt.Sprintf(`%s["%s",%s]`, packetEvent, name, payload)
	}
	return fmt.Sprintf(`%s%s,["%s",%s]`, packetEvent, ns, name, payload)
}

func (h *Hub) HandleSocketIO(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "*")

	query := r.URL.Query()
	if query.Get("EIO") != "4" {
		http.Error(w, "Only Engine.IO v4 allowed", http.StatusBadRequest)
		return
	}

	switch query.Get("transport") {
	case "polling":
		// Polling only serves the handshake, clients then upgrade
		w.Write([]byte(newHandshake(newSID(), "websocket")))
	case "websocket":
		h.serveWebsocket(w, r, query.Get("sid"))
	default:
		http.Error(w, "Unsupported transport", http.StatusBadRequest)
	}
}

func (h *Hub) serveWebsocket(w http.ResponseWriter, r *http.Request, sid string) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error().Err(err).Msg("SocketIO websocket upgrade failed")
		return
	}
	defer ws.Close()

	if sid == "" {
		sid = newSID()
	}
	client := &ClientConnection{conn: ws, sid: sid, ns: "/"}

	if err := client.send(newHandshake(sid)); err != nil {
		return
	}

	ws.SetReadDeadline(time.Now().Add(pingInterval + pingTimeout))
	_, recv, err := ws.ReadMessage()
	if err != nil {
		logger.Log.Debug().Err(err).Str("sid", sid).Msg("SocketIO client left before CONNECT")
		return
	}
	ns, ok := parseConnect(string(recv))
	if !ok {
		logger.Log.Warn().Str("sid", sid).Str("packet", string(recv)).Msg("Invalid SocketIO CONNECT packet")
		return
	}
	client.ns = ns

	h.register(client)
	defer h.unregister(client)

	if err := client.send(connectAck(ns, sid)); err != nil {
		return
	}
	logger.Log.Info().Str("sid", sid).Str("ns", ns).Msg("SocketIO client connected")

	done := make(chan struct{})
	defer close(done)
	go keepAlive(client, done)

	h.readLoop(client)
}

func keepAlive(c *ClientConnection, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.send(packetPing); err != nil {
				return
			}
		}
	}
}

// readLoop consumes client packets until the connection drops, the client
// disconnects or no packet arrives within a ping cycle
func (h *Hub) readLoop(c *ClientConnection) {
	for {
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pingTimeout))
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			logger.Log.Info().Str("sid", c.sid).Msg("SocketIO client disconnected")
			return
		}

		switch packet := string(payload); {
		case packet == packetPong:
		case packet == packetPing:
			if err := c.send(packetPong); err != nil {
				return
			}
		case strings.HasPrefix(packet, packetDisconnect):
			logger.Log.Info().Str("sid", c.sid).Msg("SocketIO client sent DISCONNECT")
			return
		default:
			// Clients only listen, anything else is ignored
			logger.Log.Debug().Str("sid", c.sid).Str("packet", packet).Msg("Ignoring SocketIO packet")
		}
	}
}

// emit broadcasts an event to every connected client and returns the
// number of clients that received it
func (h *Hub) emit(name string, event any) int {
	h.mu.RLock()
	clients := make([]*ClientConnection, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		logger.Log.Debug().Str("event", name).Msg("No SocketIO clients connected")
		return 0
	}

	jsonEvent, err := json.Marshal(event)
	if err != nil {
		logger.Log.Error().Err(err).Str("event", name).Msg("Failed to marshal SocketIO event")
		return 0
	}

	successCount := 0
	for _, cli := range clients {
		if err := cli.send(encodeEvent(cli.ns, name, jsonEvent)); err != nil {
			// The read loop unregisters closed clients
			logger.Log.Warn().Err(err).Str("sid", cli.sid).Str("event", name).Msg("SocketIO emit failed")
			continue
		}
		successCount++
	}
	return successCount
}

func (h *Hub) EmitAccountSynced(event AccountSyncedEvent) {
	successCount := h.emit(EventAccountSynced, event)

	logger.Log.Debug().
		Str("sync_id", event.SyncID).
		Str("address", event.Address).
		Int64("block_height", event.BlockHeight).
		Int("success_count", successCount).
		Msg("Emitted account_synced event via SocketIO")
}
