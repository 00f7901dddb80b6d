package store

import (
	"encoding/json"
	"os"
)

// Load restores the persisted document from disk. A missing file leaves the
// default state in place. Ephemeral timer/trip flags are restored verbatim:
// a shift that was running before a restart is still running after it.
func (s *Store) Load() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	return json.NewDecoder(f).Decode(&s.state)
}

// Save writes the full document to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(&s.state)
}
