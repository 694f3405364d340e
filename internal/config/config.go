package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

const (
	// AppName é o nome do aplicativo
	AppName = "TaskBoard"

	// AppVersion é a versão atual
	AppVersion = "1.0.0"

	// AppBundleID é o bundle identifier macOS
	AppBundleID = "com.taskboard.app"

	// DBFileName é o nome do arquivo SQLite
	DBFileName = "taskboard_data.db"

	// OverrideFileName é o arquivo JSON de overrides locais
	OverrideFileName = "taskboard.json"

	// DefaultAPIBaseURL é o backend REST padrão de tarefas
	DefaultAPIBaseURL = "https://task-board-server-andres.vercel.app"

	// APIEnvVar permite apontar o cliente para outro backend
	APIEnvVar = "TASKBOARD_API_URL"

	// SuggestionLimit é o número máximo de sugestões de tarefas por pedido
	SuggestionLimit = 5
)

// Overrides representa o conteúdo de taskboard.json
type Overrides struct {
	APIBaseURL string `json:"apiBaseUrl,omitempty"`
}

// DataDir retorna o diretório raiz de dados do app
// ~/Library/Application Support/TaskBoard/
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Application Support", "TaskBoard")
}

// DBPath retorna o caminho do arquivo SQLite
func DBPath() string {
	return filepath.Join(DataDir(), DBFileName)
}

// OverridePath retorna o caminho do arquivo de overrides locais
func OverridePath() string {
	return filepath.Join(DataDir(), OverrideFileName)
}

// LogDir retorna o diretório de logs
func LogDir() string {
	return filepath.Join(DataDir(), "logs")
}

// CacheDir retorna o diretório de cache
func CacheDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Caches", "TaskBoard")
}

// EnsureDataDirs cria os diretórios necessários se não existirem
func EnsureDataDirs() error {
	for _, dir := range []string{DataDir(), LogDir(), CacheDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// APIBaseURL resolve a URL do backend na ordem:
// taskboard.json > TASKBOARD_API_URL > default
func APIBaseURL() string {
	if override := LoadOverrides().APIBaseURL; override != "" {
		return override
	}
	if env := strings.TrimSpace(os.Getenv(APIEnvVar)); env != "" {
		return strings.TrimRight(env, "/")
	}
	return DefaultAPIBaseURL
}

// LoadOverrides lê taskboard.json; arquivo ausente ou inválido resulta em zero value
func LoadOverrides() Overrides {
	var out Overrides
	raw, err := os.ReadFile(OverridePath())
	if err != nil {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Overrides{}
	}
	out.APIBaseURL = strings.TrimRight(strings.TrimSpace(out.APIBaseURL), "/")
	return out
}
