package credstore

import (
	"errors"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	// Keychain service name
	keychainService = "com.taskboard.app"

	// KeyAccessToken é a chave fixa do access token
	KeyAccessToken = "access_token"

	// KeyRefreshToken é a chave fixa do refresh token
	KeyRefreshToken = "refresh_token"
)

// ErrNotFound indica que a chave não existe no armazenamento
var ErrNotFound = errors.New("credential not found")

// Store é o contrato do armazenamento durável de credenciais.
// Get/Set/Delete sobre as duas chaves fixas; a expiração é decidida
// pelo servidor e aparece como 401, nunca aqui.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// KeychainStore persiste tokens no keychain do sistema operacional
type KeychainStore struct{}

// NewKeychainStore cria o store padrão (OS keychain)
func NewKeychainStore() *KeychainStore {
	return &KeychainStore{}
}

func (s *KeychainStore) Get(key string) (string, error) {
	value, err := keyring.Get(keychainService, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (s *KeychainStore) Set(key, value string) error {
	return keyring.Set(keychainService, key, value)
}

func (s *KeychainStore) Delete(key string) error {
	err := keyring.Delete(keychainService, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// MemoryStore é um Store em memória para testes
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// AccessToken retorna o access token armazenado, ou "" se ausente
func AccessToken(s Store) string {
	token, err := s.Get(KeyAccessToken)
	if err != nil {
		return ""
	}
	return token
}

// RefreshToken retorna o refresh token armazenado, ou "" se ausente
func RefreshToken(s Store) string {
	token, err := s.Get(KeyRefreshToken)
	if err != nil {
		return ""
	}
	return token
}

// SetTokenPair grava os dois tokens; falha parcial não deixa par divergente
func SetTokenPair(s Store, accessToken, refreshToken string) error {
	if err := s.Set(KeyAccessToken, accessToken); err != nil {
		return err
	}
	if err := s.Set(KeyRefreshToken, refreshToken); err != nil {
		s.Delete(KeyAccessToken)
		return err
	}
	return nil
}

// Clear remove os dois tokens
func Clear(s Store) {
	s.Delete(KeyAccessToken)
	s.Delete(KeyRefreshToken)
}
