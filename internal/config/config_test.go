package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAPIBaseURLDefaultsWhenNothingIsSet(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(APIEnvVar, "")

	if got := APIBaseURL(); got != DefaultAPIBaseURL {
		t.Fatalf("APIBaseURL() = %q, want default %q", got, DefaultAPIBaseURL)
	}
}

func TestAPIBaseURLReadsEnvVar(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(APIEnvVar, "http://localhost:3000/")

	if got := APIBaseURL(); got != "http://localhost:3000" {
		t.Fatalf("APIBaseURL() = %q, want env value without trailing slash", got)
	}
}

func TestOverrideFileWinsOverEnvVar(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(APIEnvVar, "http://env.example.com")

	if err := EnsureDataDirs(); err != nil {
		t.Fatalf("EnsureDataDirs() error = %v", err)
	}
	payload := []byte(`{"apiBaseUrl":"http://override.example.com/"}`)
	if err := os.WriteFile(OverridePath(), payload, 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if got := APIBaseURL(); got != "http://override.example.com" {
		t.Fatalf("APIBaseURL() = %q, want override value", got)
	}
}

func TestLoadOverridesToleratesMissingAndInvalidFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if got := LoadOverrides(); got.APIBaseURL != "" {
		t.Fatalf("LoadOverrides() on missing file = %+v, want zero value", got)
	}

	if err := EnsureDataDirs(); err != nil {
		t.Fatalf("EnsureDataDirs() error = %v", err)
	}
	if err := os.WriteFile(OverridePath(), []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if got := LoadOverrides(); got.APIBaseURL != "" {
		t.Fatalf("LoadOverrides() on invalid file = %+v, want zero value", got)
	}
}

func TestDataPathsLiveUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	for name, path := range map[string]string{
		"DataDir":      DataDir(),
		"DBPath":       DBPath(),
		"OverridePath": OverridePath(),
		"LogDir":       LogDir(),
		"CacheDir":     CacheDir(),
	} {
		if !filepath.IsAbs(path) {
			t.Errorf("%s = %q, want absolute path", name, path)
		}
		if rel, err := filepath.Rel(home, path); err != nil || rel == ".." || filepath.IsAbs(rel) {
			t.Errorf("%s = %q, want path under %q", name, path, home)
		}
	}
}
