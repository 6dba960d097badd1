package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// handleSessionEvents streams the session as server-sent events: a
// "snapshot" right away and after every tick or applied operation, then
// "end" once the session is finished or discarded.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	live, ok := s.liveSession(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := live.Subscribe()
	defer live.Unsubscribe(ch)

	// Send current state immediately
	fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", mustJSON(viewOf(live)))
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-ch:
			if !ok {
				fmt.Fprintf(w, "event: end\ndata: %s\n\n", mustJSON(map[string]string{"id": live.ID.String()}))
				flusher.Flush()
				return
			}
			view := viewOf(live)
			view.Snapshot = snap
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", mustJSON(view))
			flusher.Flush()
		}
	}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{}`
	}
	return string(b)
}
