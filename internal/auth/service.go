package auth

import (
	"context"
	"log"
	"strings"
	"sync"

	"taskboard/internal/api"
	"taskboard/internal/credstore"
)

// Mensagens genéricas quando o servidor não manda nada exibível
const (
	fallbackLoginError    = "Login failed. Please try again."
	fallbackRegisterError = "Registration failed. Please try again."
	fallbackProfileError  = "Failed to fetch profile"
	sessionExpiredError   = "Session expired. Please login again."
)

// SnapshotSink persiste o snapshot de sessão para reidratação no próximo
// cold start. Tokens nunca passam por aqui; ficam só no credstore.
type SnapshotSink interface {
	SaveSession(user User, isAuthenticated bool) error
	ClearSession() error
}

// EmitFunc publica eventos reativos para o frontend
type EmitFunc func(eventName string, data interface{})

// AuditFunc registra eventos do ciclo de vida de auth
type AuditFunc func(action, details string)

// Service é o store de sessão autenticada. É construído com suas
// dependências (nada de estado global) e serializa mutações via mutex;
// operações assíncronas carregam um número de sequência e escritas de
// operações superadas são descartadas.
type Service struct {
	api       *api.Client
	creds     credstore.Store
	snapshots SnapshotSink
	emit      EmitFunc
	audit     AuditFunc

	mu     sync.Mutex
	state  State
	latest uint64
}

// NewService cria um store de sessão vazio
func NewService(apiClient *api.Client, creds credstore.Store, snapshots SnapshotSink, emit EmitFunc, audit AuditFunc) *Service {
	if emit == nil {
		emit = func(string, interface{}) {}
	}
	if audit == nil {
		audit = func(string, string) {}
	}
	return &Service{
		api:       apiClient,
		creds:     creds,
		snapshots: snapshots,
		emit:      emit,
		audit:     audit,
	}
}

// GetState retorna uma cópia do estado atual da sessão
func (s *Service) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// begin reivindica um número de operação e marca a sessão como ocupada
func (s *Service) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	s.state.IsLoading = true
	s.state.Error = ""
	return s.latest
}

// commit aplica a mutação somente se a operação não foi superada por outra
// iniciada depois. Retorna false quando a escrita foi descartada.
func (s *Service) commit(op uint64, apply func(*State)) bool {
	s.mu.Lock()
	if op != s.latest {
		s.mu.Unlock()
		log.Printf("[AUTH] Discarding stale result from operation %d (latest is %d)", op, s.latest)
		return false
	}
	apply(&s.state)
	s.state.IsLoading = false
	snapshot := s.state
	s.mu.Unlock()

	s.emit(EventChanged, snapshot)
	return true
}

// Login autentica com email+senha, persistindo o par de tokens e a sessão
// em lockstep. Em falha a sessão e o credstore terminam vazios.
func (s *Service) Login(ctx context.Context, email, password string) error {
	if err := requireFields(map[string]string{"email": email, "password": password}); err != nil {
		return err
	}

	op := s.begin()

	var resp AuthResponse
	err := s.api.Post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil || resp.User == nil || resp.AccessToken == "" || resp.RefreshToken == "" {
		message := api.ErrorMessage(err, fallbackLoginError)
		s.clearEverything(op, message)
		s.audit("login_failed", "Login rejected for "+email)
		return &AuthError{Message: message, Err: err}
	}

	if storeErr := credstore.SetTokenPair(s.creds, resp.AccessToken, resp.RefreshToken); storeErr != nil {
		s.clearEverything(op, fallbackLoginError)
		return &AuthError{Message: fallbackLoginError, Err: storeErr}
	}

	s.commit(op, func(st *State) {
		st.User = resp.User
		st.AccessToken = resp.AccessToken
		st.RefreshToken = resp.RefreshToken
		st.IsAuthenticated = true
		st.Error = ""
	})
	s.saveSnapshot(resp.User, true)
	s.audit("login", "User logged in")
	log.Printf("[AUTH] Login successful for user %s", resp.User.ID)
	return nil
}

// Register cria a conta mas NÃO autentica: o fluxo segue para o login
func (s *Service) Register(ctx context.Context, email, password, fullName string) error {
	if err := requireFields(map[string]string{"email": email, "password": password, "fullName": fullName}); err != nil {
		return err
	}

	op := s.begin()

	err := s.api.Post(ctx, "/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"fullName": fullName,
	}, nil)
	if err != nil {
		message := api.ErrorMessage(err, fallbackRegisterError)
		s.clearEverything(op, message)
		s.audit("register_failed", "Registration rejected for "+email)
		return &AuthError{Message: message, Err: err}
	}

	s.commit(op, func(st *State) {
		st.Error = ""
	})
	s.audit("register", "Account created")
	log.Println("[AUTH] Registration successful")
	return nil
}

// Logout notifica o servidor em best-effort e sempre limpa credstore e
// sessão; do ponto de vista da UI nunca falha
func (s *Service) Logout(ctx context.Context) {
	op := s.begin()

	if err := s.api.Post(ctx, "/auth/logout", nil, nil); err != nil {
		log.Printf("[AUTH] Logout notify failed (ignored): %v", err)
	}

	s.clearEverything(op, "")
	s.audit("logout", "User logged out")
	log.Println("[AUTH] Logged out")
}

// RefreshSession renova o par de tokens explicitamente (precisa de um
// refresh token na sessão). Falha derruba a sessão inteira.
func (s *Service) RefreshSession(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.state.RefreshToken
	s.mu.Unlock()

	if refreshToken == "" {
		return &AuthError{Message: "No refresh token available"}
	}

	op := s.begin()

	var resp AuthResponse
	err := s.api.Post(ctx, "/auth/refresh", map[string]string{
		"refreshToken": refreshToken,
	}, &resp)
	if err != nil || resp.AccessToken == "" || resp.RefreshToken == "" {
		s.clearEverything(op, sessionExpiredError)
		s.audit("refresh_failed", "Session refresh rejected")
		return &AuthError{Message: sessionExpiredError, Err: err}
	}

	if storeErr := credstore.SetTokenPair(s.creds, resp.AccessToken, resp.RefreshToken); storeErr != nil {
		s.clearEverything(op, sessionExpiredError)
		return &AuthError{Message: sessionExpiredError, Err: storeErr}
	}

	s.commit(op, func(st *State) {
		if resp.User != nil {
			st.User = resp.User
		}
		st.AccessToken = resp.AccessToken
		st.RefreshToken = resp.RefreshToken
		st.IsAuthenticated = true
		st.Error = ""
	})
	s.audit("refresh", "Session refreshed")
	log.Println("[AUTH] Session refreshed")
	return nil
}

// FetchProfile atualiza o usuário da sessão; falha registra o erro mas
// não mexe nos tokens
func (s *Service) FetchProfile(ctx context.Context) error {
	op := s.begin()

	var user User
	if err := s.api.Get(ctx, "/auth/profile", &user); err != nil {
		message := api.ErrorMessage(err, fallbackProfileError)
		s.commit(op, func(st *State) {
			st.Error = message
		})
		return &AuthError{Message: message, Err: err}
	}

	s.commit(op, func(st *State) {
		st.User = &user
		st.Error = ""
	})
	return nil
}

// CheckAuth é a ponte entre o armazenamento durável e o estado reativo no
// cold start: revalida o token local via /auth/profile em vez de confiar
// nele, porque pode ter sido revogado no servidor. Idempotente.
func (s *Service) CheckAuth(ctx context.Context) {
	if credstore.AccessToken(s.creds) == "" {
		op := s.begin()
		s.commit(op, func(st *State) {
			*st = State{}
		})
		return
	}

	op := s.begin()

	var user User
	if err := s.api.Get(ctx, "/auth/profile", &user); err != nil {
		// O interceptor já tentou o refresh; chegar aqui é sessão morta
		log.Printf("[AUTH] Auth check failed, discarding local session: %v", err)
		s.clearEverything(op, "")
		s.audit("check_failed", "Stored session invalid")
		return
	}

	accessToken := credstore.AccessToken(s.creds)
	refreshToken := credstore.RefreshToken(s.creds)
	s.commit(op, func(st *State) {
		st.User = &user
		st.AccessToken = accessToken
		st.RefreshToken = refreshToken
		st.IsAuthenticated = true
		st.Error = ""
	})
	s.saveSnapshot(&user, true)
	log.Printf("[AUTH] Session restored for user %s", user.ID)
}

// Reset zera a sessão em memória sem tocar no servidor
func (s *Service) Reset() {
	op := s.begin()
	s.commit(op, func(st *State) {
		*st = State{}
	})
}

// clearEverything zera sessão, credstore e snapshot no mesmo passo lógico
func (s *Service) clearEverything(op uint64, message string) {
	credstore.Clear(s.creds)
	if s.snapshots != nil {
		if err := s.snapshots.ClearSession(); err != nil {
			log.Printf("[AUTH] Failed to clear session snapshot: %v", err)
		}
	}
	s.commit(op, func(st *State) {
		*st = State{Error: message}
	})
}

func (s *Service) saveSnapshot(user *User, isAuthenticated bool) {
	if s.snapshots == nil || user == nil {
		return
	}
	if err := s.snapshots.SaveSession(*user, isAuthenticated); err != nil {
		log.Printf("[AUTH] Failed to save session snapshot: %v", err)
	}
}

func requireFields(fields map[string]string) error {
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: name}
		}
	}
	return nil
}
