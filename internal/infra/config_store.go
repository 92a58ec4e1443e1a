package infra

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

// TOMLConfigStore implements domain.ConfigStore with a TOML file.
type TOMLConfigStore struct {
	path string
}

// NewTOMLConfigStore creates a store backed by path.
func NewTOMLConfigStore(path string) *TOMLConfigStore {
	return &TOMLConfigStore{path: path}
}

// Path returns the configuration file path.
func (s *TOMLConfigStore) Path() string {
	return s.path
}

// Load reads and validates the configuration.
func (s *TOMLConfigStore) Load() (*domain.AgentConfiguration, error) {
	var cfg domain.AgentConfiguration
	md, err := toml.DecodeFile(s.path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrConfigNotFound
		}
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrConfigCorrupted, s.path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %q", domain.ErrConfigCorrupted, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigCorrupted, err)
	}
	return &cfg, nil
}

// Save validates cfg and writes it atomically (write + rename).
func (s *TOMLConfigStore) Save(cfg *domain.AgentConfiguration) error {
	if cfg == nil {
		return fmt.Errorf("nil configuration")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	// Write to temp file first (unique per process to avoid race)
	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, os.Getpid())
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace configuration: %w", err)
	}
	return nil
}

// Ensure TOMLConfigStore implements domain.ConfigStore.
var _ domain.ConfigStore = (*TOMLConfigStore)(nil)
