package api

import (
	"encoding/json"
	"strings"
)

// envelope é o formato {success, statusCode, message, data} que parte dos
// endpoints usa ao redor do payload
type envelope struct {
	Success    *bool           `json:"success"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

// decodeResponse desembrulha o envelope quando presente (success + data),
// entregando só o payload; qualquer outro formato passa intacto
func decodeResponse(body []byte, out interface{}) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Success != nil && env.Data != nil {
		return json.Unmarshal(env.Data, out)
	}
	return json.Unmarshal(body, out)
}

// summarizeErrorBody extrai uma mensagem exibível de um corpo de erro sem
// jamais ecoar payloads com tokens ou segredos
func summarizeErrorBody(body []byte) string {
	const fallback = "request failed"

	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fallback
	}

	for _, candidate := range []string{parsed.Message, parsed.Error} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if looksLikeSecret(candidate) {
			continue
		}
		return candidate
	}
	return fallback
}

func looksLikeSecret(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "token\"") ||
		strings.Contains(lower, "bearer ") ||
		strings.Count(message, ".") >= 2 && len(message) > 100 // formato JWT
}
