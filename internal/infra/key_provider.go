package infra

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

// keySize is the SQLCipher raw key length (256 bits).
const keySize = 32

// FileKeyProvider keeps the registry key as hex in the agent data directory,
// the same form SQLCipher takes in its raw-key pragma.
//
// Every agent generation shares the file. It is written once and never
// replaced: a second writer gets fs.ErrExist and must read the winner's key.
type FileKeyProvider struct {
	keyPath string
	goos    string
}

// NewFileKeyProvider creates a provider for the key file at keyPath.
func NewFileKeyProvider(keyPath string) *FileKeyProvider {
	return &FileKeyProvider{keyPath: keyPath, goos: runtime.GOOS}
}

// GetKey reads the key, narrowing the file back to 0600 if it was widened.
func (p *FileKeyProvider) GetKey() ([]byte, error) {
	raw, err := os.ReadFile(p.keyPath)
	if err != nil {
		return nil, fmt.Errorf("read registry key %s: %w", p.keyPath, err)
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("registry key %s is not hex: %w", p.keyPath, err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("registry key %s has %d bytes, want %d", p.keyPath, len(key), keySize)
	}
	if err := p.restrictMode(); err != nil {
		return nil, err
	}
	return key, nil
}

// StoreKey creates the key file. It fails with fs.ErrExist if any generation
// already created one. The file appears complete: it is written and synced
// under a temporary name, then hard-linked into place.
func (p *FileKeyProvider) StoreKey(key []byte) error {
	if len(key) != keySize {
		return fmt.Errorf("registry key has %d bytes, want %d", len(key), keySize)
	}
	dir := filepath.Dir(p.keyPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".key-tmp-*")
	if err != nil {
		return fmt.Errorf("create registry key: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(hex.EncodeToString(key) + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("write registry key: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync registry key: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write registry key: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return fmt.Errorf("restrict registry key mode: %w", err)
	}

	if err := os.Link(tmpPath, p.keyPath); err != nil {
		return fmt.Errorf("create registry key: %w", err)
	}
	return nil
}

// KeyExists checks if the key file exists.
func (p *FileKeyProvider) KeyExists() bool {
	_, err := os.Stat(p.keyPath)
	return err == nil
}

// restrictMode is a no-op on Windows, where mode bits do not carry group/other access.
func (p *FileKeyProvider) restrictMode() error {
	if p.goos == "windows" {
		return nil
	}
	info, err := os.Stat(p.keyPath)
	if err != nil {
		return fmt.Errorf("stat registry key: %w", err)
	}
	if info.Mode().Perm()&0o077 == 0 {
		return nil
	}
	if err := os.Chmod(p.keyPath, 0600); err != nil {
		return fmt.Errorf("restrict registry key mode: %w", err)
	}
	return nil
}

// GenerateKey creates a new random key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate registry key: %w", err)
	}
	return key, nil
}

// EnsureKey returns the stored key, creating one on first use.
// When another generation creates the key first, its key is used.
func EnsureKey(provider domain.KeyProvider) ([]byte, error) {
	if provider.KeyExists() {
		return provider.GetKey()
	}
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := provider.StoreKey(key); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return provider.GetKey()
		}
		return nil, err
	}
	return key, nil
}

// Ensure FileKeyProvider implements domain.KeyProvider.
var _ domain.KeyProvider = (*FileKeyProvider)(nil)
