package api

import (
	"net/http"

	"github.com/RudinMaxim/BarberMarket/internal/reviews"
)

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	barberID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, err := s.reviews.ListForBarber(r.Context(), barberID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) submitReview(w http.ResponseWriter, r *http.Request) {
	var req reviews.SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	review, err := s.reviews.Submit(r.Context(), currentUser(r), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (s *Server) replyReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		Reply string `json:"reply"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	review, err := s.reviews.Reply(r.Context(), currentUser(r), id, req.Reply)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}
