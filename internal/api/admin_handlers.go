package api

import (
	"fmt"
	"net/http"
	"time"
)

func (s *Server) platformStats(w http.ResponseWriter, r *http.Request) {
	out, err := s.stats.Platform(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// exportBookings serves the CSV report for admins and barbers.
func (s *Server) exportBookings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="bookings_report_%s.csv"`, time.Now().Format("2006_01_02")))

	if err := s.stats.ExportCSV(r.Context(), currentUser(r), w); err != nil {
		w.Header().Del("Content-Disposition")
		s.writeError(w, r, err)
	}
}
