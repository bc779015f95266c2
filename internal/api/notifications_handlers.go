package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"go.uber.org/zap"
)

const streamKeepAlive = 25 * time.Second

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := s.notifications.List(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []common.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.notifications.MarkRead(r.Context(), currentUser(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.notifications.MarkAllRead(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

func (s *Server) deleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.notifications.Delete(r.Context(), currentUser(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// streamNotifications pushes new notifications as server-sent events for as
// long as the client keeps the connection open.
func (s *Server) streamNotifications(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "live notifications are disabled"})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming unsupported"})
		return
	}

	user := currentUser(r)
	events, unsubscribe, err := s.hub.Subscribe(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case n, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				s.log.Warn("Failed to encode notification", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
