// Package profile persists saved optimizer profiles and user preferences.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/kpango/glg"

	"svgstudio/optimizer"
)

// Manager handles loading, saving, and updating the profile store.
type Manager struct {
	mu       sync.RWMutex
	filePath string
	store    Store
}

// NewManager loads the store from filePath, or starts empty if the file does
// not exist. Returns an error only on unexpected I/O or decode failures.
func NewManager(filePath string) (*Manager, error) {
	m := &Manager{filePath: filePath, store: emptyStore()}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, nil
		}
		return nil, err
	}

	var s Store
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	m.store = normalize(s)
	return m, nil
}

func emptyStore() Store {
	return Store{Profiles: []Profile{}, RecentlyUsed: []string{}, Preference: Preference{Theme: ThemeSystem}}
}

func normalize(s Store) Store {
	if s.Profiles == nil {
		s.Profiles = []Profile{}
	}
	if s.RecentlyUsed == nil {
		s.RecentlyUsed = []string{}
	}
	if !s.Preference.Theme.Valid() {
		s.Preference.Theme = ThemeSystem
	}
	return s
}

// Get returns a snapshot of the current store.
func (m *Manager) Get() Store {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyStore(m.store)
}

// Profile returns the profile with the given id.
func (m *Manager) Profile(id string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store.Profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return Profile{}, ErrNotFound
}

// Save validates and atomically writes the profiles and MRU list. The stored
// preference is kept. Profiles without an id are given one.
func (m *Manager) Save(s Store) (Store, error) {
	s = normalize(s)
	seen := make(map[string]bool, len(s.Profiles))
	for i := range s.Profiles {
		p := &s.Profiles[i]
		if strings.TrimSpace(p.Name) == "" {
			return Store{}, fmt.Errorf("%w: profile %d has no name", ErrInvalid, i)
		}
		for _, pl := range p.Plugins {
			if !optimizer.Known(pl.Name) {
				return Store{}, fmt.Errorf("%w: unknown plugin %q", ErrInvalid, pl.Name)
			}
		}
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if seen[p.ID] {
			return Store{}, fmt.Errorf("%w: duplicate id %q", ErrInvalid, p.ID)
		}
		seen[p.ID] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s.Preference = m.store.Preference
	s.RecentlyUsed = recent("", s.RecentlyUsed, s.Profiles)
	if err := m.writeAtomic(s); err != nil {
		return Store{}, err
	}
	m.store = s
	return copyStore(s), nil
}

// SetPreference validates and persists p.
func (m *Manager) SetPreference(p Preference) error {
	if !p.Theme.Valid() {
		return fmt.Errorf("%w: theme %q", ErrInvalid, p.Theme)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.store
	s.Preference = p
	if err := m.writeAtomic(s); err != nil {
		return err
	}
	m.store = s
	return nil
}

// Use marks the profile as most recently used and returns it.
func (m *Manager) Use(id string) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var found *Profile
	for i := range m.store.Profiles {
		if m.store.Profiles[i].ID == id {
			found = &m.store.Profiles[i]
			break
		}
	}
	if found == nil {
		return Profile{}, ErrNotFound
	}
	s := m.store
	s.RecentlyUsed = recent(id, m.store.RecentlyUsed, m.store.Profiles)
	if err := m.writeAtomic(s); err != nil {
		return Profile{}, err
	}
	m.store = s
	return *found, nil
}

// recent prepends id (when set) to list, dropping duplicates and ids that no
// longer exist, capped at maxRecent.
func recent(id string, list []string, profiles []Profile) []string {
	exists := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		exists[p.ID] = true
	}
	seen := map[string]bool{}
	out := []string{}
	if id != "" {
		seen[id] = true
		out = append(out, id)
	}
	for _, eid := range list {
		if seen[eid] || !exists[eid] {
			continue
		}
		seen[eid] = true
		out = append(out, eid)
		if len(out) == maxRecent {
			break
		}
	}
	return out
}

// writeAtomic writes to a temp file then renames it over filePath.
// Caller must hold m.mu.
func (m *Manager) writeAtomic(s Store) error {
	dir := filepath.Dir(m.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp := m.filePath + ".tmp"
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, m.filePath); err != nil {
		return err
	}
	glg.Debugf("profile store written to %s", m.filePath)
	return nil
}

func copyStore(s Store) Store {
	profiles := make([]Profile, len(s.Profiles))
	for i, p := range s.Profiles {
		p.Plugins = append([]optimizer.Plugin(nil), p.Plugins...)
		profiles[i] = p
	}
	ru := make([]string, len(s.RecentlyUsed))
	copy(ru, s.RecentlyUsed)
	return Store{Profiles: profiles, RecentlyUsed: ru, Preference: s.Preference}
}
