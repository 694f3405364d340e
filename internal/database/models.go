package database

import "time"

// UserConfig armazena configurações locais do usuário
type UserConfig struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"uniqueIndex;not null" json:"userId"`
	Theme      string    `gorm:"default:dark" json:"theme"`
	Language   string    `gorm:"default:en" json:"language"`
	APIBaseURL string    `gorm:"default:''" json:"apiBaseUrl,omitempty"`
	AIProvider string    `gorm:"default:''" json:"aiProvider,omitempty"` // "openai" | "gemini" | "ollama" | ""
	AIModel    string    `gorm:"default:''" json:"aiModel,omitempty"`
	AIAPIKey   string    `json:"-"` // nunca serializado para o frontend
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SessionSnapshot é o snapshot de reidratação da sessão autenticada.
// Tokens ficam exclusivamente no keychain; aqui só perfil + flag.
type SessionSnapshot struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          string    `gorm:"index;not null" json:"userId"`
	Email           string    `gorm:"not null" json:"email"`
	FullName        string    `json:"fullName"`
	EmailConfirmed  bool      `gorm:"default:false" json:"emailConfirmed"`
	IsAuthenticated bool      `gorm:"default:false" json:"isAuthenticated"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CachedTask é a cópia offline da última lista de tarefas vista.
// O dashboard pinta a partir daqui antes do round trip de rede.
type CachedTask struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    string    `gorm:"uniqueIndex;not null" json:"taskId"`
	Payload   string    `gorm:"type:text;not null" json:"payload"` // Task serializada em JSON
	Status    string    `gorm:"index;default:TODO" json:"status"`
	SortOrder int       `gorm:"default:0" json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuditLog armazena eventos do ciclo de vida de autenticação.
// Details já chega sanitizado (sem bearer tokens ou segredos).
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   string    `gorm:"index;not null" json:"eventId"`
	Action    string    `gorm:"index;not null" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
