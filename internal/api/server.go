// Package api exposes the marketplace over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/internal/availability"
	"github.com/RudinMaxim/BarberMarket/internal/barbers"
	"github.com/RudinMaxim/BarberMarket/internal/blocking"
	"github.com/RudinMaxim/BarberMarket/internal/bookings"
	"github.com/RudinMaxim/BarberMarket/internal/catalog"
	"github.com/RudinMaxim/BarberMarket/internal/categories"
	"github.com/RudinMaxim/BarberMarket/internal/loyalty"
	"github.com/RudinMaxim/BarberMarket/internal/notifications"
	"github.com/RudinMaxim/BarberMarket/internal/reviews"
	"github.com/RudinMaxim/BarberMarket/internal/stats"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Deps struct {
	Bookings      *bookings.Service
	Availability  *availability.Service
	Catalog       *catalog.Service
	Blocking      *blocking.Service
	Reviews       *reviews.Service
	Notifications *notifications.Service
	Stats         *stats.Service
	Barbers       *barbers.Service
	Categories    *categories.Service
	Loyalty       *loyalty.Service
	// Hub is optional; without it live notification streams are unavailable.
	Hub *notifications.Hub

	JWTSecret     string
	RatePerMinute int
	// TrustedProxies are CIDRs or addresses whose X-Forwarded-For is honored.
	TrustedProxies []string
	AllowedOrigin  []string
	Health         func(ctx context.Context) error
	Log            *zap.Logger
}

type Server struct {
	bookings      *bookings.Service
	availability  *availability.Service
	catalog       *catalog.Service
	blocking      *blocking.Service
	reviews       *reviews.Service
	notifications *notifications.Service
	stats         *stats.Service
	barbers       *barbers.Service
	categories    *categories.Service
	loyalty       *loyalty.Service
	hub           *notifications.Hub

	secret  []byte
	origins []string
	health  func(ctx context.Context) error
	limiter *rateLimiterStore
	log     *zap.Logger
}

func NewServer(d Deps) *Server {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if len(d.AllowedOrigin) == 0 {
		d.AllowedOrigin = []string{"*"}
	}
	trusted, err := parseTrustedProxies(d.TrustedProxies)
	if err != nil {
		d.Log.Warn("Ignoring trusted proxies, forwarded headers will not be used", zap.Error(err))
		trusted = nil
	}
	return &Server{
		bookings:      d.Bookings,
		availability:  d.Availability,
		catalog:       d.Catalog,
		blocking:      d.Blocking,
		reviews:       d.Reviews,
		notifications: d.Notifications,
		stats:         d.Stats,
		barbers:       d.Barbers,
		categories:    d.Categories,
		loyalty:       d.Loyalty,
		hub:           d.Hub,
		secret:        []byte(d.JWTSecret),
		origins:       d.AllowedOrigin,
		health:        d.Health,
		limiter:       newRateLimiterStore(d.RatePerMinute, limiterIdleTTL, trusted),
		log:           d.Log,
	}
}

// Handler builds the routed handler wrapped in CORS and access logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.rateLimit, s.authenticate)

	// Any authenticated role
	api.HandleFunc("/barbers", s.discoverBarbers).Methods(http.MethodGet)
	api.HandleFunc("/barbers/{id}", s.getBarber).Methods(http.MethodGet)
	api.HandleFunc("/cities", s.listCities).Methods(http.MethodGet)
	api.HandleFunc("/cities/{id}/neighborhoods", s.listNeighborhoods).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.listCategories).Methods(http.MethodGet)
	api.HandleFunc("/services/{id}/slots", s.listSlots).Methods(http.MethodGet)
	api.HandleFunc("/barbers/{id}/services", s.listServices).Methods(http.MethodGet)
	api.HandleFunc("/barbers/{id}/reviews", s.listReviews).Methods(http.MethodGet)
	api.HandleFunc("/bookings", s.listBookings).Methods(http.MethodGet)
	api.HandleFunc("/bookings/upcoming", s.upcomingBookings).Methods(http.MethodGet)
	api.HandleFunc("/notifications", s.listNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/stream", s.streamNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", s.markAllNotificationsRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id}/read", s.markNotificationRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id}", s.deleteNotification).Methods(http.MethodDelete)

	client := api.NewRoute().Subrouter()
	client.Use(requireRole(common.RoleClient))
	client.HandleFunc("/bookings", s.createBooking).Methods(http.MethodPost)
	client.HandleFunc("/bookings/{id}/cancel", s.cancelBooking).Methods(http.MethodPost)
	client.HandleFunc("/reviews", s.submitReview).Methods(http.MethodPost)
	client.HandleFunc("/loyalty", s.listLoyalty).Methods(http.MethodGet)

	staff := api.NewRoute().Subrouter()
	staff.Use(requireRole(common.RoleBarber, common.RoleAdmin))
	staff.HandleFunc("/bookings/{id}/status", s.updateBookingStatus).Methods(http.MethodPatch)

	barber := api.PathPrefix("/barber").Subrouter()
	barber.Use(requireRole(common.RoleBarber))
	barber.HandleFunc("/profile", s.getOwnProfile).Methods(http.MethodGet)
	barber.HandleFunc("/profile", s.updateOwnProfile).Methods(http.MethodPut)
	barber.HandleFunc("/availability", s.getAvailability).Methods(http.MethodGet)
	barber.HandleFunc("/availability", s.saveAvailability).Methods(http.MethodPut)
	barber.HandleFunc("/services", s.createService).Methods(http.MethodPost)
	barber.HandleFunc("/services/{id}", s.updateService).Methods(http.MethodPut)
	barber.HandleFunc("/services/{id}", s.deactivateService).Methods(http.MethodDelete)
	barber.HandleFunc("/blocked", s.listBlocked).Methods(http.MethodGet)
	barber.HandleFunc("/blocked/{clientId}", s.blockClient).Methods(http.MethodPut)
	barber.HandleFunc("/blocked/{clientId}", s.unblockClient).Methods(http.MethodDelete)
	barber.HandleFunc("/stats", s.barberStats).Methods(http.MethodGet)
	barber.HandleFunc("/bookings.csv", s.exportBookings).Methods(http.MethodGet)
	barber.HandleFunc("/loyalty/{clientId}", s.clientLoyalty).Methods(http.MethodGet)
	barber.HandleFunc("/loyalty/{clientId}/redeem", s.redeemLoyalty).Methods(http.MethodPost)

	api.HandleFunc("/reviews/{id}/reply", s.replyReview).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(requireRole(common.RoleAdmin))
	admin.HandleFunc("/stats", s.platformStats).Methods(http.MethodGet)
	admin.HandleFunc("/bookings", s.listBookings).Methods(http.MethodGet)
	admin.HandleFunc("/bookings.csv", s.exportBookings).Methods(http.MethodGet)
	admin.HandleFunc("/barbers", s.adminListBarbers).Methods(http.MethodGet)
	admin.HandleFunc("/barbers/{id}/verification", s.setVerification).Methods(http.MethodPatch)
	admin.HandleFunc("/categories", s.createCategory).Methods(http.MethodPost)
	admin.HandleFunc("/categories/{id}", s.updateCategory).Methods(http.MethodPut)
	admin.HandleFunc("/categories/{id}", s.deleteCategory).Methods(http.MethodDelete)
	admin.HandleFunc("/cities", s.createCity).Methods(http.MethodPost)
	admin.HandleFunc("/cities/{id}/neighborhoods", s.createNeighborhood).Methods(http.MethodPost)

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	access := zap.NewStdLog(s.log.Named("http")).Writer()
	return handlers.LoggingHandler(access, cors(r))
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.log.Warn("Health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func currentUser(r *http.Request) common.CurrentUser {
	user, _ := UserFrom(r.Context())
	return user
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, ErrBadRequest("invalid " + name)
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return ErrBadRequest("invalid request body")
	}
	return nil
}
