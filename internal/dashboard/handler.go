package dashboard

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/githubtower/ghtower/internal/syncer"
)

// Handler turns watch events for one project into dashboard messages.
type Handler struct {
	server  *Server
	project string
	logger  *log.Logger

	mu    sync.Mutex
	stats StatsData
}

// NewHandler creates a handler broadcasting on server.
func NewHandler(server *Server, project string, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		server:  server,
		project: project,
		logger:  logger,
		stats:   StatsData{Project: project},
	}
}

// OnPush broadcasts the outcome of a push and the updated counters. res
// may be nil when the push failed before producing a result.
func (h *Handler) OnPush(res *syncer.Result, err error, took time.Duration) {
	data := PushData{
		Project:    h.project,
		OK:         err == nil,
		DurationMS: took.Milliseconds(),
	}
	if err != nil {
		data.Error = err.Error()
	}
	if res != nil {
		data.Model = string(res.Model)
		data.ColumnsCreated = res.ColumnsCreated
		data.CardsCreated = res.CardsCreated
		data.CardsSkipped = res.CardsSkipped
		data.Warnings = len(res.Warnings)
	}
	h.send(MessageTypePush, data)

	h.mu.Lock()
	h.stats.Pushes++
	if err != nil {
		h.stats.Failures++
	}
	stats := h.stats
	h.mu.Unlock()
	h.send(MessageTypeStats, stats)
}

// OnUnchanged records a burst of events that left the files unchanged.
func (h *Handler) OnUnchanged() {
	h.mu.Lock()
	h.stats.Unchanged++
	stats := h.stats
	h.mu.Unlock()
	h.send(MessageTypeStats, stats)
}

// Stats returns the counters broadcast so far.
func (h *Handler) Stats() StatsData {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

func (h *Handler) send(typ MessageType, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Printf("Failed to marshal %s data: %v", typ, err)
		return
	}
	h.server.Broadcast(Message{Type: typ, Data: data})
}
