package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mercator-hq/saturn/pkg/export"
	"mercator-hq/saturn/pkg/share"
	"mercator-hq/saturn/pkg/telemetry/logging"

	"github.com/gorilla/mux"
)

// SharePasswordHeader carries the password for protected shares.
const SharePasswordHeader = "X-Share-Password"

type createShareResponse struct {
	ID                string    `json:"id"`
	URL               string    `json:"url"`
	ExpiresAt         time.Time `json:"expiresAt"`
	PasswordProtected bool      `json:"passwordProtected"`
}

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	var opts share.Options
	if err := decodeJSON(r, &opts); err != nil {
		s.writeError(w, r, err)
		return
	}

	rep, err := s.currentReport(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	raw, err := json.Marshal(export.NewSnapshot(rep, opts.IncludeData, s.now()))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to encode snapshot: %w", err))
		return
	}

	rec, err := s.deps.Shares.CreateShareableLink(raw, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, createShareResponse{
		ID:                rec.ID,
		URL:               "/api/shares/" + rec.ID,
		ExpiresAt:         rec.ExpiresAt,
		PasswordProtected: rec.PasswordProtected,
	})
}

func (s *Server) handleListShares(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.Shares.GetAllActiveShares())
}

func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	r = r.WithContext(logging.WithShareID(r.Context(), id))

	rec, err := s.deps.Shares.GetSharedData(id, r.Header.Get(SharePasswordHeader))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleShareStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Shares.GetShareStatistics(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCleanupShares(w http.ResponseWriter, r *http.Request) {
	removed := s.deps.Shares.CleanupExpiredShares()
	s.writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}
