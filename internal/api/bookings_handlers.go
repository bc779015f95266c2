package api

import (
	"net/http"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/internal/bookings"
	"github.com/RudinMaxim/BarberMarket/internal/slots"
)

// SlotResponse is the wire form of a slot candidate.
type SlotResponse struct {
	StartTime   string `json:"startTime"`
	IsAvailable bool   `json:"isAvailable"`
	IsTaken     bool   `json:"isTaken"`
}

func toSlotResponses(list []slots.Slot) []SlotResponse {
	out := make([]SlotResponse, 0, len(list))
	for _, s := range list {
		out = append(out, SlotResponse{StartTime: s.Label(), IsAvailable: s.IsAvailable, IsTaken: s.IsTaken})
	}
	return out
}

func (s *Server) listSlots(w http.ResponseWriter, r *http.Request) {
	serviceID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		s.writeError(w, r, ErrBadRequest("date is required"))
		return
	}
	day, err := s.bookings.ParseDate(date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.bookings.AvailableSlots(r.Context(), serviceID, day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotResponses(list))
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	var req bookings.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	booking, err := s.bookings.Create(r.Context(), currentUser(r), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) listBookings(w http.ResponseWriter, r *http.Request) {
	list, err := s.bookings.ListForUser(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []common.Booking{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) upcomingBookings(w http.ResponseWriter, r *http.Request) {
	list, err := s.bookings.Upcoming(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []common.Booking{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) updateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		Status common.BookingStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	booking, err := s.bookings.UpdateStatus(r.Context(), currentUser(r), id, req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	booking, err := s.bookings.Cancel(r.Context(), currentUser(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}
