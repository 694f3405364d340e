package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error representa uma resposta HTTP de erro do backend de tarefas.
// Message é seguro para exibição (nunca ecoa corpo com tokens).
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsUnauthorized reporta se err corresponde a uma resposta 401
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// ErrorMessage extrai a mensagem exibível de err, ou fallback se não houver
func ErrorMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
