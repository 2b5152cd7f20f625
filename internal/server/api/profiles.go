// Package api provides HTTP API handlers for the Repwatch rep counting system.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/repwatch/internal/counter"
	"github.com/ayusman/repwatch/internal/store"
)

// ProfileHandler handles HTTP requests for counting profile resources.
type ProfileHandler struct {
	store *store.Store
}

// NewProfileHandler creates a new ProfileHandler with the given store.
func NewProfileHandler(s *store.Store) *ProfileHandler {
	return &ProfileHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Parse the path to determine if this is a collection or item request
	// Expected paths: /api/profiles or /api/profiles/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/profiles")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/profiles
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// Item endpoint: /api/profiles/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type profileRequest struct {
	Name          string   `json:"name"`
	UpThreshold   *float64 `json:"upThreshold"`
	DownThreshold *float64 `json:"downThreshold"`
	Hysteresis    *float64 `json:"hysteresis"`
	MinDepthPx    *float64 `json:"minDepthPx"`
	MinFrames     *int     `json:"minFrames"`
	CooldownMs    *int64   `json:"cooldownMs"`
}

type profileResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	UpThreshold   float64 `json:"upThreshold"`
	DownThreshold float64 `json:"downThreshold"`
	Hysteresis    float64 `json:"hysteresis"`
	MinDepthPx    float64 `json:"minDepthPx"`
	MinFrames     int     `json:"minFrames"`
	CooldownMs    int64   `json:"cooldownMs"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Profile to a profileResponse.
func toResponse(p *store.Profile) profileResponse {
	return profileResponse{
		ID:            p.ID,
		Name:          p.Name,
		UpThreshold:   p.UpThreshold,
		DownThreshold: p.DownThreshold,
		Hysteresis:    p.Hysteresis,
		MinDepthPx:    p.MinDepthPx,
		MinFrames:     p.MinFrames,
		CooldownMs:    p.CooldownMs,
		CreatedAt:     p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// apply copies the request's provided fields onto the profile. Absent
// fields keep their current values.
func (req *profileRequest) apply(p *store.Profile) {
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.UpThreshold != nil {
		p.UpThreshold = *req.UpThreshold
	}
	if req.DownThreshold != nil {
		p.DownThreshold = *req.DownThreshold
	}
	if req.Hysteresis != nil {
		p.Hysteresis = *req.Hysteresis
	}
	if req.MinDepthPx != nil {
		p.MinDepthPx = *req.MinDepthPx
	}
	if req.MinFrames != nil {
		p.MinFrames = *req.MinFrames
	}
	if req.CooldownMs != nil {
		p.CooldownMs = *req.CooldownMs
	}
}

// validate rejects profiles the counter itself would refuse, so broken
// presets never reach the database.
func validate(p *store.Profile) error {
	cfg := counter.DefaultConfig()
	cfg.UpThreshold = p.UpThreshold
	cfg.DownThreshold = p.DownThreshold
	cfg.Hysteresis = p.Hysteresis
	cfg.MinDepthPx = p.MinDepthPx
	cfg.MinFramesInState = p.MinFrames
	return cfg.Validate()
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/profiles and returns all profiles.
func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	response := listProfilesResponse{
		Profiles: make([]profileResponse, 0, len(profiles)),
	}

	for _, p := range profiles {
		response.Profiles = append(response.Profiles, toResponse(p))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/profiles/{id} and returns a single profile.
func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	profile, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(profile))
}

// create handles POST /api/profiles and creates a new profile. Omitted
// threshold fields fall back to the counter defaults.
func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	defaults := counter.DefaultConfig()
	profile := &store.Profile{
		ID:            uuid.New().String(),
		UpThreshold:   defaults.UpThreshold,
		DownThreshold: defaults.DownThreshold,
		Hysteresis:    defaults.Hysteresis,
		MinDepthPx:    defaults.MinDepthPx,
		MinFrames:     defaults.MinFramesInState,
		CooldownMs:    defaults.MinCooldown.Milliseconds(),
	}
	req.apply(profile)

	if err := validate(profile); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Profiles().Create(profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(profile))
}

// update handles PUT /api/profiles/{id} and updates an existing profile.
func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	profile, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.apply(profile)

	if err := validate(profile); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Profiles().Update(profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(profile))
}

// delete handles DELETE /api/profiles/{id} and removes a profile.
func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Profiles().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
