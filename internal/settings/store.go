// Package settings persists the rendering configuration and tracks whether the
// in-memory copy drifted from what was last loaded or saved.
package settings

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"neopixel-controller/internal/core"
)

// DefaultFile is the settings record identifier used when none is configured.
const DefaultFile = "settings.json"

// Digest is the fingerprint of a serialized Settings record.
type Digest [sha1.Size]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// record is the flat mapping written to the settings file.
type record struct {
	Mode       core.Mode `json:"mode"`
	Color      string    `json:"color"`
	Brightness int       `json:"brightness"`
	Speed      int       `json:"speed"`
}

// flatten drops the directive bookkeeping. A pending directive is stored as the
// mode it will hand back to.
func flatten(s core.Settings) record {
	mode := s.Mode
	if mode.IsDirective() {
		mode = s.PreviousMode
		if mode == "" || mode.IsDirective() {
			mode = core.DefaultSettings().Mode
		}
	}
	return record{Mode: mode, Color: s.Color, Brightness: s.Brightness, Speed: s.Speed}
}

func (r record) settings() core.Settings {
	return core.Settings{Mode: r.Mode, Color: r.Color, Brightness: r.Brightness, Speed: r.Speed}
}

// Fingerprint returns the digest of the canonical serialization of s.
func Fingerprint(s core.Settings) Digest {
	data, err := json.Marshal(flatten(s))
	if err != nil {
		// record only holds strings and ints.
		panic(fmt.Sprintf("settings: marshal: %v", err))
	}
	return sha1.Sum(data)
}

// Store owns the live Settings and the fingerprint of the last persisted snapshot.
//
// Only the scheduler goroutine mutates the settings, through Update. Other
// goroutines read through Snapshot.
type Store struct {
	path     string
	defaults core.Settings

	mu       sync.RWMutex
	current  core.Settings
	baseline Digest
}

// Open loads the settings file at path. A missing or unreadable file is not an
// error: the defaults are used and the store starts clean.
func Open(path string, defaults core.Settings) *Store {
	if path == "" {
		path = DefaultFile
	}
	s := &Store{path: path, defaults: defaults}

	loaded, err := s.LoadSaved()
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("[Settings] No settings file at '%s', using defaults.", path)
		loaded = defaults
	case err != nil:
		log.Printf("[Settings] %v. Falling back to defaults.", err)
		loaded = defaults
	}

	s.current = loaded
	s.baseline = Fingerprint(loaded)
	return s
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Defaults returns the factory settings used by ApplyDefaults.
func (s *Store) Defaults() core.Settings {
	return s.defaults
}

// LoadSaved reads the persisted record without touching the in-memory settings.
func (s *Store) LoadSaved() (core.Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return core.Settings{}, fmt.Errorf("failed to read settings file '%s': %w", s.path, err)
	}

	loaded := flatten(s.defaults)
	if err := json.Unmarshal(data, &loaded); err != nil {
		return core.Settings{}, fmt.Errorf("failed to decode settings file '%s': %w", s.path, err)
	}
	return s.sanitize(loaded.settings()), nil
}

// sanitize replaces out-of-range fields with their defaults.
func (s *Store) sanitize(in core.Settings) core.Settings {
	if in.Mode == "" || in.Mode.IsDirective() {
		in.Mode = s.defaults.Mode
	}
	if !core.ValidBrightness(in.Brightness) {
		log.Printf("[Settings] Ignoring persisted brightness %d.", in.Brightness)
		in.Brightness = s.defaults.Brightness
	}
	if !core.ValidSpeed(in.Speed) {
		log.Printf("[Settings] Ignoring persisted speed %d.", in.Speed)
		in.Speed = s.defaults.Speed
	}
	return in
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() core.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update runs fn with exclusive access to the live settings.
func (s *Store) Update(fn func(*core.Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.current)
}

// ApplyDefaults resets the settings to the factory values and treats them as the
// new baseline, so IsDirty is false right after a reset.
func (s *Store) ApplyDefaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.defaults
	s.baseline = Fingerprint(s.current)
}

// Persist writes the current settings and makes them the new baseline.
// The in-memory settings are kept whatever the outcome.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(flatten(s.current))
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace settings file '%s': %w", s.path, err)
	}

	s.baseline = Fingerprint(s.current)
	log.Printf("[Settings] Saved settings to '%s'.", s.path)
	return nil
}

// Fingerprint returns the digest of the current settings.
func (s *Store) Fingerprint() Digest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Fingerprint(s.current)
}

// IsDirty reports whether the current settings differ from the last loaded or
// persisted snapshot.
func (s *Store) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Fingerprint(s.current) != s.baseline
}
