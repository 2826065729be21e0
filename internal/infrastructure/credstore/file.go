// Package credstore persists the token and session snapshot pair on the
// local filesystem. Redis and Mongo drivers live under db/.
package credstore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"

	"github.com/microtask/taskhub/internal/core/domain"
)

const (
	envelopeVersion = 1
	saltSize        = 16
	kdfIterations   = 100_000
)

// ErrSealed is returned when the file is sealed and no key was configured,
// or the key does not open it.
var ErrSealed = errors.New("credential file is sealed with a different key")

// envelope is the on-disk document. Exactly one of Credential and Sealed is
// set.
type envelope struct {
	Version    int                         `json:"v"`
	Credential *domain.PersistedCredential `json:"credential,omitempty"`
	Salt       []byte                      `json:"salt,omitempty"`
	Sealed     []byte                      `json:"sealed,omitempty"`
}

// FileStore implements ports.CredentialStore with a single JSON file.
type FileStore struct {
	path       string
	passphrase string

	mu sync.Mutex
}

// NewFileStore returns a store writing to path. A non-empty passphrase seals
// the credential at rest.
func NewFileStore(path, passphrase string) *FileStore {
	return &FileStore{path: path, passphrase: passphrase}
}

func (s *FileStore) Load(ctx context.Context) (*domain.PersistedCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("read credential file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// Torn or foreign file: drop it rather than trust half a pair.
		_ = os.Remove(s.path)
		return nil, domain.ErrNoCredential
	}

	cred := env.Credential
	if len(env.Sealed) > 0 {
		if cred, err = s.open(env); err != nil {
			return nil, err
		}
	}
	if cred == nil || !cred.Complete() {
		_ = os.Remove(s.path)
		return nil, domain.ErrNoCredential
	}
	return cred, nil
}

func (s *FileStore) Save(ctx context.Context, cred domain.PersistedCredential) error {
	if !cred.Complete() {
		return domain.ErrIncompleteCredential
	}

	env := envelope{Version: envelopeVersion}
	if s.passphrase == "" {
		env.Credential = &cred
	} else {
		if err := s.seal(&env, cred); err != nil {
			return err
		}
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(s.path, data)
}

func (s *FileStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}

// Check reports whether the credential directory is usable.
func (s *FileStore) Check(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func (s *FileStore) seal(env *envelope, cred domain.PersistedCredential) error {
	plain, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	aead, err := chacha20poly1305.NewX(s.key(salt))
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	env.Salt = salt
	env.Sealed = aead.Seal(nonce, nonce, plain, []byte{envelopeVersion})
	return nil
}

func (s *FileStore) open(env envelope) (*domain.PersistedCredential, error) {
	if s.passphrase == "" {
		return nil, ErrSealed
	}
	aead, err := chacha20poly1305.NewX(s.key(env.Salt))
	if err != nil {
		return nil, err
	}
	if len(env.Sealed) < aead.NonceSize() {
		return nil, ErrSealed
	}
	nonce, box := env.Sealed[:aead.NonceSize()], env.Sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, box, []byte{byte(env.Version)})
	if err != nil {
		return nil, ErrSealed
	}

	var cred domain.PersistedCredential
	if err := json.Unmarshal(plain, &cred); err != nil {
		return nil, nil
	}
	return &cred, nil
}

func (s *FileStore) key(salt []byte) []byte {
	return pbkdf2.Key([]byte(s.passphrase), salt, kdfIterations, chacha20poly1305.KeySize, sha256.New)
}

// writeAtomic replaces path with data so readers see either the old or the
// new pair, never a mix.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credential directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temporary credential file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("restrict temporary credential file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temporary credential file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temporary credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temporary credential file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("move credential file into place: %w", err)
	}
	return nil
}
