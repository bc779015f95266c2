package api

import (
	"net/http"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/internal/availability"
	"github.com/RudinMaxim/BarberMarket/internal/catalog"
)

func (s *Server) getAvailability(w http.ResponseWriter, r *http.Request) {
	days, err := s.availability.WeeklySchedule(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) saveAvailability(w http.ResponseWriter, r *http.Request) {
	var days []availability.Day
	if err := decodeJSON(r, &days); err != nil {
		s.writeError(w, r, err)
		return
	}
	user := currentUser(r)
	if err := s.availability.SaveWeeklySchedule(r.Context(), user, days); err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.availability.WeeklySchedule(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) listServices(w http.ResponseWriter, r *http.Request) {
	barberID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.catalog.ListForBarber(r.Context(), currentUser(r), barberID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []common.Service{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createService(w http.ResponseWriter, r *http.Request) {
	var in catalog.Input
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	service, err := s.catalog.Create(r.Context(), currentUser(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, service)
}

func (s *Server) updateService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in catalog.Input
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	service, err := s.catalog.Update(r.Context(), currentUser(r), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, service)
}

func (s *Server) deactivateService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.Deactivate(r.Context(), currentUser(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listBlocked(w http.ResponseWriter, r *http.Request) {
	list, err := s.blocking.ListBlocked(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []common.BlockedClient{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) blockClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "clientId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	row, err := s.blocking.Block(r.Context(), currentUser(r), clientID, req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) unblockClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "clientId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.blocking.Unblock(r.Context(), currentUser(r), clientID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) barberStats(w http.ResponseWriter, r *http.Request) {
	out, err := s.stats.Barber(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
