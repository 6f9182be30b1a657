package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketHandler streams recent log entries to connected clients, the
// ambient observability surface every quaero-derived service carries
// regardless of whether the domain spec calls for it.
type WebSocketHandler struct {
	logger      arbor.ILogger
	clients     map[*websocket.Conn]*sync.Mutex
	mu          sync.RWMutex
	lastLogKeys map[string]bool
	logKeysMu   sync.Mutex
}

func NewWebSocketHandler(logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		logger:      logger,
		clients:     make(map[*websocket.Conn]*sync.Mutex),
		lastLogKeys: make(map[string]bool),
	}
}

type wsMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type logEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *WebSocketHandler) broadcastLog(entry logEntry) {
	msg := wsMessage{Type: "log", Payload: entry}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for c, m := range h.clients {
		targets[c] = m
	}
	h.mu.RUnlock()

	for conn, mutex := range targets {
		mutex.Lock()
		conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()
	}
}

// StartLogStreamer polls arbor's memory writer and forwards new entries to
// connected clients, grounded on the teacher's poll-and-diff approach
// (arbor's memory writer has no native subscribe API).
func (h *WebSocketHandler) StartLogStreamer() {
	ticker := time.NewTicker(2 * time.Second)
	go func() {
		for range ticker.C {
			h.mu.RLock()
			n := len(h.clients)
			h.mu.RUnlock()
			if n > 0 {
				h.pollAndBroadcast()
			}
		}
	}()
}

func (h *WebSocketHandler) pollAndBroadcast() {
	memWriter := arbor.GetRegisteredMemoryWriter(arbor.WRITER_MEMORY)
	if memWriter == nil {
		return
	}
	entries, err := memWriter.GetEntriesWithLimit(50)
	if err != nil {
		return
	}

	h.logKeysMu.Lock()
	defer h.logKeysMu.Unlock()

	newKeys := make(map[string]bool, len(entries))
	for key, line := range entries {
		newKeys[key] = true
		if !h.lastLogKeys[key] {
			h.broadcastLog(parseLogLine(line))
		}
	}
	h.lastLogKeys = newKeys
}

// parseLogLine parses arbor's memory-writer format "LVL|date time|message".
func parseLogLine(line string) logEntry {
	parts := strings.SplitN(line, "|", 3)
	if len(parts) != 3 {
		return logEntry{Timestamp: time.Now().Format("15:04:05"), Level: "info", Message: line}
	}

	level := "info"
	switch strings.TrimSpace(parts[0]) {
	case "ERR", "ERROR", "FATAL", "PANIC":
		level = "error"
	case "WRN", "WARN":
		level = "warn"
	}

	timestamp := time.Now().Format("15:04:05")
	if fields := strings.Fields(strings.TrimSpace(parts[1])); len(fields) >= 3 {
		timestamp = fields[len(fields)-1]
	}

	return logEntry{Timestamp: timestamp, Level: level, Message: strings.TrimSpace(parts[2])}
}
