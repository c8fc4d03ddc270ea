package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"vacpac/internal/artifact"
	"vacpac/internal/config"
	"vacpac/internal/manifest"
)

// State remembers the digest of the last manifest published per plugin so an
// unchanged plugin is not re-embedded.
type State struct {
	path    string
	digests map[string]string
}

// StatePath is the state file of a collection under ~/.vacpac/state.
func StatePath(collection string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, config.UserConfigDir, "state", collection+"_published.json"), nil
}

// LoadState reads the state file at path. A missing file yields empty state.
func LoadState(path string) (*State, error) {
	s := &State{path: path, digests: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.digests); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if s.digests == nil {
		s.digests = make(map[string]string)
	}
	return s, nil
}

// Save persists the state.
func (s *State) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.digests, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Unchanged reports whether m matches what was last published for its name.
func (s *State) Unchanged(m *manifest.Manifest) (bool, error) {
	digest, err := manifestDigest(m)
	if err != nil {
		return false, err
	}
	return s.digests[m.Name] == digest, nil
}

// Record stores the digest of m as published.
func (s *State) Record(m *manifest.Manifest) error {
	digest, err := manifestDigest(m)
	if err != nil {
		return err
	}
	s.digests[m.Name] = digest
	return nil
}

// Forget drops the entry of plugin.
func (s *State) Forget(plugin string) {
	delete(s.digests, plugin)
}

// Clear forgets every plugin.
func (s *State) Clear() {
	s.digests = make(map[string]string)
}

func manifestDigest(m *manifest.Manifest) (string, error) {
	data, err := m.JSON()
	if err != nil {
		return "", err
	}
	sum, err := artifact.Digest(data)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(sum, 16), nil
}
