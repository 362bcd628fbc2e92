package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/teemow/ticktask/internal/logging"
)

const (
	// DefaultDirName is the per-user directory holding the token and key files.
	DefaultDirName = ".ticktask"

	tokenFileName = "tokens.enc"
	keyFileName   = "key.key"
)

// TokenRecord is the persisted token pair.
type TokenRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}

// TokenStore persists a single TokenRecord.
type TokenStore interface {
	// Save stamps SavedAt, replaces any previous record and returns the stored record.
	Save(rec TokenRecord) (TokenRecord, error)
	// Load returns the stored record, or false when there is none or it cannot be read.
	Load() (TokenRecord, bool)
	// Clear removes the stored record. Clearing an empty store is not an error.
	Clear() error
}

// FileTokenStore keeps the token record encrypted in <dir>/tokens.enc with the
// key in <dir>/key.key. Both files are written owner-only via temp file + rename,
// so a concurrent reader never sees a partial write.
type FileTokenStore struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewFileTokenStore creates a store rooted at dir. Nothing is touched on disk
// until the first Save or Load.
func NewFileTokenStore(dir string, logger *slog.Logger) *FileTokenStore {
	return &FileTokenStore{
		dir:    dir,
		logger: logging.OrDiscard(logger),
		now:    time.Now,
	}
}

// DefaultStoreDir returns ~/.ticktask.
func DefaultStoreDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

// TokenPath returns the path of the encrypted token file.
func (s *FileTokenStore) TokenPath() string {
	return filepath.Join(s.dir, tokenFileName)
}

// KeyPath returns the path of the key file.
func (s *FileTokenStore) KeyPath() string {
	return filepath.Join(s.dir, keyFileName)
}

// Save implements TokenStore.
func (s *FileTokenStore) Save(rec TokenRecord) (TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return TokenRecord{}, fmt.Errorf("failed to create token directory: %w", err)
	}

	enc, err := s.encryption()
	if err != nil {
		return TokenRecord{}, err
	}

	rec.SavedAt = s.now()
	plaintext, err := json.Marshal(rec)
	if err != nil {
		return TokenRecord{}, fmt.Errorf("failed to encode token record: %w", err)
	}

	blob, err := enc.Encrypt(plaintext)
	if err != nil {
		return TokenRecord{}, fmt.Errorf("failed to encrypt token record: %w", err)
	}

	if err := writeFileAtomic(s.TokenPath(), blob, 0o600); err != nil {
		return TokenRecord{}, fmt.Errorf("failed to write token file: %w", err)
	}

	s.logger.Debug("saved token record",
		"access_token", logging.SanitizeToken(rec.AccessToken),
		"has_refresh_token", rec.RefreshToken != "")
	return rec, nil
}

// Load implements TokenStore. Every failure is logged and reported as absent.
func (s *FileTokenStore) Load() (TokenRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := os.ReadFile(s.TokenPath())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to read token file", logging.Err(err))
		}
		return TokenRecord{}, false
	}

	enc, err := s.encryption()
	if err != nil {
		s.logger.Warn("failed to load encryption key", logging.Err(err))
		return TokenRecord{}, false
	}

	plaintext, err := enc.Decrypt(blob)
	if err != nil {
		s.logger.Warn("stored token is unreadable, re-authentication required",
			logging.Err(&TokenDecryptError{Path: s.TokenPath(), Err: err}))
		return TokenRecord{}, false
	}

	var rec TokenRecord
	if err := json.Unmarshal(plaintext, &rec); err != nil {
		s.logger.Warn("stored token is unreadable, re-authentication required",
			logging.Err(&TokenDecryptError{Path: s.TokenPath(), Err: err}))
		return TokenRecord{}, false
	}

	if rec.AccessToken == "" {
		s.logger.Warn("stored token record has no access token")
		return TokenRecord{}, false
	}

	return rec, true
}

// Clear implements TokenStore. The key file is kept.
func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.TokenPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// encryption loads the key file, generating a new key when it is missing or
// malformed. A new key makes any existing token file undecryptable.
func (s *FileTokenStore) encryption() (*TokenEncryption, error) {
	data, err := os.ReadFile(s.KeyPath())
	switch {
	case err == nil:
		key, decodeErr := EncryptionKeyFromBase64(strings.TrimSpace(string(data)))
		if decodeErr == nil {
			return NewTokenEncryption(key)
		}
		s.logger.Warn("key file is malformed, generating a new key", logging.Err(decodeErr))
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}

	key, err := GenerateEncryptionKey()
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(s.KeyPath(), []byte(EncryptionKeyToBase64(key)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	s.logger.Debug("generated new token encryption key")

	return NewTokenEncryption(key)
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err = tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
