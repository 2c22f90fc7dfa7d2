package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"jobgate-engine/internal/events"
)

// EventsHandler streams hub events to one SSE client. Heartbeat comments
// keep idle connections from being reaped while a run waits on the
// operator; zero means 20s.
type EventsHandler struct {
	Hub       *events.Hub
	Heartbeat time.Duration
}

func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(ch)

	every := h.Heartbeat
	if every <= 0 {
		every = 20 * time.Second
	}
	tick := time.NewTicker(every)
	defer tick.Stop()

	fmt.Fprint(w, "retry: 3000\n\n")
	fmt.Fprintf(w, "data: %s\n\n", events.MakeEvent(RequestIDFrom(r.Context()), "ping", 1, nil))
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
