package auth

import "fmt"

// AuthError carrega a mensagem exibível de uma falha de autenticação.
// Ela também fica registrada em State.Error para a UI.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError é uma rejeição local de formulário; nunca chega à rede
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}
