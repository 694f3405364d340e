package credstore

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	if _, err := store.Get(KeyAccessToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() on empty store = %v, want ErrNotFound", err)
	}

	if err := store.Set(KeyAccessToken, "AT1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value, err := store.Get(KeyAccessToken)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "AT1" {
		t.Fatalf("Get() = %q, want %q", value, "AT1")
	}

	if err := store.Delete(KeyAccessToken); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(KeyAccessToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after delete = %v, want ErrNotFound", err)
	}
}

func TestKeychainStoreRoundTrip(t *testing.T) {
	keyring.MockInit()
	store := NewKeychainStore()

	if _, err := store.Get(KeyRefreshToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() on empty keychain = %v, want ErrNotFound", err)
	}

	if err := store.Set(KeyRefreshToken, "RT1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value, err := store.Get(KeyRefreshToken)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "RT1" {
		t.Fatalf("Get() = %q, want %q", value, "RT1")
	}

	// Delete é idempotente: apagar o que não existe não é erro
	if err := store.Delete(KeyRefreshToken); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(KeyRefreshToken); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
}

func TestSetTokenPairAndClear(t *testing.T) {
	store := NewMemoryStore()

	if err := SetTokenPair(store, "AT1", "RT1"); err != nil {
		t.Fatalf("SetTokenPair() error = %v", err)
	}
	if AccessToken(store) != "AT1" || RefreshToken(store) != "RT1" {
		t.Fatalf("token pair = %q/%q, want AT1/RT1", AccessToken(store), RefreshToken(store))
	}

	Clear(store)
	if AccessToken(store) != "" || RefreshToken(store) != "" {
		t.Fatalf("Clear() left tokens behind")
	}
}

type failingRefreshStore struct {
	*MemoryStore
}

func (s *failingRefreshStore) Set(key, value string) error {
	if key == KeyRefreshToken {
		return errors.New("keychain write denied")
	}
	return s.MemoryStore.Set(key, value)
}

func TestSetTokenPairRollsBackOnPartialFailure(t *testing.T) {
	store := &failingRefreshStore{MemoryStore: NewMemoryStore()}

	if err := SetTokenPair(store, "AT1", "RT1"); err == nil {
		t.Fatalf("expected error from failing refresh write")
	}
	if AccessToken(store) != "" {
		t.Fatalf("partial failure must not leave a lone access token")
	}
}

func TestMissingTokensReadAsEmpty(t *testing.T) {
	store := NewMemoryStore()
	if AccessToken(store) != "" {
		t.Fatalf("AccessToken() on empty store should be empty")
	}
	if RefreshToken(store) != "" {
		t.Fatalf("RefreshToken() on empty store should be empty")
	}
}
