package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/internal/barbers"
	"github.com/RudinMaxim/BarberMarket/internal/categories"
	"github.com/google/uuid"
)

func queryID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrBadRequest("invalid " + name)
	}
	return &id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrBadRequest("invalid " + name)
	}
	return n, nil
}

func discoverFilter(r *http.Request) (barbers.Filter, error) {
	var f barbers.Filter
	var err error
	if f.CategoryID, err = queryID(r, "category"); err != nil {
		return f, err
	}
	if f.CityID, err = queryID(r, "city"); err != nil {
		return f, err
	}
	if f.NeighborhoodID, err = queryID(r, "neighborhood"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(r, "offset"); err != nil {
		return f, err
	}
	f.Query = r.URL.Query().Get("q")
	return f, nil
}

func (s *Server) discoverBarbers(w http.ResponseWriter, r *http.Request) {
	f, err := discoverFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cards, err := s.barbers.Discover(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if cards == nil {
		cards = []barbers.Card{}
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) getBarber(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	card, err := s.barbers.Get(r.Context(), currentUser(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) listCities(w http.ResponseWriter, r *http.Request) {
	cities, err := s.barbers.Cities(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if cities == nil {
		cities = []common.City{}
	}
	writeJSON(w, http.StatusOK, cities)
}

func (s *Server) listNeighborhoods(w http.ResponseWriter, r *http.Request) {
	cityID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.barbers.Neighborhoods(r.Context(), cityID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []common.Neighborhood{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.categories.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []common.Category{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getOwnProfile(w http.ResponseWriter, r *http.Request) {
	card, err := s.barbers.Own(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) updateOwnProfile(w http.ResponseWriter, r *http.Request) {
	var in barbers.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	card, err := s.barbers.UpdateProfile(r.Context(), currentUser(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) listLoyalty(w http.ResponseWriter, r *http.Request) {
	balances, err := s.loyalty.Balances(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (s *Server) clientLoyalty(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "clientId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	balance, err := s.loyalty.ClientBalance(r.Context(), currentUser(r), clientID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (s *Server) redeemLoyalty(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "clientId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	balance, err := s.loyalty.Redeem(r.Context(), currentUser(r), clientID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (s *Server) adminListBarbers(w http.ResponseWriter, r *http.Request) {
	status := common.VerificationStatus(r.URL.Query().Get("status"))
	cards, err := s.barbers.ListForAdmin(r.Context(), currentUser(r), status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if cards == nil {
		cards = []barbers.Card{}
	}
	writeJSON(w, http.StatusOK, cards)
}

type verificationRequest struct {
	Status common.VerificationStatus `json:"status"`
	Note   string                    `json:"note"`
}

func (s *Server) setVerification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req verificationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	card, err := s.barbers.SetVerification(r.Context(), currentUser(r), id, req.Status, req.Note)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var in categories.Input
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.categories.Create(r.Context(), currentUser(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in categories.Input
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.categories.Update(r.Context(), currentUser(r), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.categories.Delete(r.Context(), currentUser(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) createCity(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	city, err := s.barbers.CreateCity(r.Context(), currentUser(r), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, city)
}

func (s *Server) createNeighborhood(w http.ResponseWriter, r *http.Request) {
	cityID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.barbers.CreateNeighborhood(r.Context(), currentUser(r), cityID, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}
