package auth

// User representa o perfil do usuário autenticado
type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FullName       string `json:"fullName"`
	EmailConfirmed bool   `json:"emailConfirmed"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// State é a representação em memória da sessão atual.
// isAuthenticated=true implica par de tokens presente aqui E no credstore.
type State struct {
	User            *User  `json:"user,omitempty"`
	AccessToken     string `json:"accessToken,omitempty"`
	RefreshToken    string `json:"refreshToken,omitempty"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	IsLoading       bool   `json:"isLoading"`
	Error           string `json:"error,omitempty"`
}

// AuthResponse é o payload de /auth/login e /auth/refresh
type AuthResponse struct {
	User         *User  `json:"user,omitempty"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn,omitempty"`
}

// Eventos de runtime emitidos para o frontend
const (
	EventChanged = "auth:changed"
	EventExpired = "auth:expired"
)
