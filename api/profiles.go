package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"svgstudio/profile"
)

func (h *handler) getProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.profiles.Get())
}

// putProfiles replaces the whole profile list. Recently used ids that no
// longer name a profile are dropped by the store.
func (h *handler) putProfiles(w http.ResponseWriter, r *http.Request) {
	var store profile.Store
	if err := json.NewDecoder(r.Body).Decode(&store); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	updated, err := h.profiles.Save(store)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) useProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Use(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile":      p,
		"recentlyUsed": h.profiles.Get().RecentlyUsed,
	})
}

func (h *handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.profiles.Get().Preference)
}

func (h *handler) putPreferences(w http.ResponseWriter, r *http.Request) {
	var p profile.Preference
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := h.profiles.SetPreference(p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
