package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/MaxShih147/brew-signal/internal/domain"
)

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

type createIPRequest struct {
	Name          string  `json:"name"`
	ExternalRefID *string `json:"external_ref_id,omitempty"`
}

func (s *Server) listIPs(w http.ResponseWriter, r *http.Request) {
	ips, err := s.store.IPs.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ips)
}

func (s *Server) createIP(w http.ResponseWriter, r *http.Request) {
	var req createIPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	ip := domain.IP{ID: uuid.New(), Name: req.Name, ExternalRefID: req.ExternalRefID, CreatedAt: time.Now()}
	created, err := s.store.IPs.Create(r.Context(), ip)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateIP(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ip id")
		return
	}
	var req createIPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	existing, err := s.store.IPs.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.ExternalRefID != nil {
		existing.ExternalRefID = req.ExternalRefID
	}
	if err := s.store.IPs.Update(r.Context(), existing); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) deleteIP(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ip id")
		return
	}
	if err := s.store.IPs.Delete(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type createAliasRequest struct {
	Text   string  `json:"alias"`
	Locale string  `json:"locale"`
	Weight float64 `json:"weight"`
}

func (s *Server) createAlias(w http.ResponseWriter, r *http.Request) {
	ipID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ip id")
		return
	}
	var req createAliasRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "alias is required")
		return
	}
	weight := req.Weight
	if weight == 0 {
		weight = 1
	}
	alias := domain.Alias{
		ID: uuid.New(), IPID: ipID, Text: req.Text, Locale: req.Locale,
		Weight: weight, OriginalWeight: weight, Enabled: true,
	}
	created, err := s.store.Aliases.Create(r.Context(), alias)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type updateAliasRequest struct {
	Text    *string  `json:"alias,omitempty"`
	Locale  *string  `json:"locale,omitempty"`
	Weight  *float64 `json:"weight,omitempty"`
	Enabled *bool    `json:"enabled,omitempty"`
}

func (s *Server) updateAlias(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "aid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alias id")
		return
	}
	var req updateAliasRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	existing, err := s.store.Aliases.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if req.Text != nil {
		existing.Text = *req.Text
	}
	if req.Locale != nil {
		existing.Locale = *req.Locale
	}
	if req.Weight != nil {
		existing.Weight = *req.Weight
	}
	if req.Enabled != nil {
		existing.Enabled = *req.Enabled
	}
	if err := s.store.Aliases.Update(r.Context(), existing); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) deleteAlias(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "aid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alias id")
		return
	}
	if err := s.store.Aliases.Delete(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) resetAliasWeight(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "aid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alias id")
		return
	}
	updated, err := s.store.Aliases.ResetWeight(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
