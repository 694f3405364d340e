package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"taskboard/internal/ai"
	"taskboard/internal/api"
	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/credstore"
	"taskboard/internal/database"
	fw "taskboard/internal/filewatcher"
	"taskboard/internal/live"
	"taskboard/internal/security"
	"taskboard/internal/tasks"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

const boundCallTimeout = 30 * time.Second

// HydrationPayload é o estado inicial entregue ao frontend no DomReady
type HydrationPayload struct {
	Auth    auth.State           `json:"auth"`
	Board   tasks.State          `json:"board"`
	Config  *database.UserConfig `json:"config,omitempty"`
	BaseURL string               `json:"baseUrl"`
	Version string               `json:"version"`
}

// App é o shell Wails: liga credstore, transporte, sessão e quadro de
// tarefas, e expõe os bindings consumidos pela SPA embarcada
type App struct {
	ctx         context.Context
	db          *database.Service
	creds       credstore.Store
	api         *api.Client
	auth        *auth.Service
	tasks       *tasks.Service
	ai          *ai.Service
	feed        *live.Feed
	fileWatcher *fw.Service

	logSanitizer *security.LogSanitizer
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{}
}

// Startup is called when the app starts
// Inicializa banco, credstore, transporte, sessão e quadro de tarefas
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	log.Println("[TASKBOARD] Starting up...")

	// 1. Garantir diretórios existem
	if err := config.EnsureDataDirs(); err != nil {
		log.Printf("[TASKBOARD] Error creating data dirs: %v", err)
	}

	// 2. Inicializar banco de dados SQLite
	dbService, err := database.NewService()
	if err != nil {
		log.Printf("[TASKBOARD] Error initializing database: %v", err)
	} else {
		a.db = dbService
		log.Println("[TASKBOARD] Database initialized")
	}

	// 3. Sanitizer de logs/auditoria
	a.logSanitizer = security.NewLogSanitizer()

	// 4. Credstore (keychain do sistema)
	if a.creds == nil {
		a.creds = credstore.NewKeychainStore()
	}

	// 5. Transporte compartilhado. A política de sessão expirada é do
	// shell: o transporte só avisa, quem navega é o frontend.
	a.api = api.NewClient(config.APIBaseURL(), a.creds, a.onSessionExpired)
	log.Println("[TASKBOARD] API client initialized")

	// 6. Store de sessão autenticada
	a.auth = auth.NewService(a.api, a.creds, &dbSnapshotSink{db: a.db}, a.emitEvent, a.auditAuthEvent)
	log.Println("[TASKBOARD] Auth service initialized")

	// 7. Store de tarefas com cache offline
	a.tasks = tasks.NewService(a.api, &dbTaskCache{db: a.db}, a.emitEvent)
	log.Println("[TASKBOARD] Tasks service initialized")

	// 8. Sugestões por IA (fallback local do /tasks/suggestions)
	a.ai = ai.NewService()
	a.restoreAIProvider()

	// 9. Feed de mudanças em tempo real (opcional no backend)
	a.feed = live.NewFeed(a.api.BaseURL, func() string {
		return credstore.AccessToken(a.creds)
	}, a.onLiveEvent)

	// 10. Hot reload de taskboard.json
	fwService, err := fw.NewService()
	if err != nil {
		log.Printf("[TASKBOARD] Error initializing FileWatcher: %v", err)
	} else {
		a.fileWatcher = fwService
		a.fileWatcher.OnChange(func(string) {
			a.api.SetBaseURL(config.APIBaseURL())
		})
		if watchErr := a.fileWatcher.Watch(config.OverridePath()); watchErr != nil {
			log.Printf("[TASKBOARD] Could not watch override file: %v", watchErr)
		}
	}

	log.Println("[TASKBOARD] Startup complete")
}

// DomReady é chamado quando a SPA terminou de carregar
func (a *App) DomReady(ctx context.Context) {
	a.emitHydration()
	go a.bootstrapSession()
}

// Shutdown é chamado ao fechar o app
func (a *App) Shutdown(ctx context.Context) {
	if a.feed != nil {
		a.feed.Stop()
	}
	if a.fileWatcher != nil {
		_ = a.fileWatcher.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	log.Println("[TASKBOARD] Shutdown complete")
}

// bootstrapSession reidrata a sessão no cold start: pinta o quadro com o
// cache offline, revalida o token local e só então busca do servidor
func (a *App) bootstrapSession() {
	a.tasks.LoadCache()

	ctx, cancel := context.WithTimeout(context.Background(), boundCallTimeout)
	defer cancel()
	a.auth.CheckAuth(ctx)

	if a.auth.GetState().IsAuthenticated {
		a.feed.Start()
		if _, err := a.tasks.Fetch(ctx); err != nil {
			log.Printf("[TASKBOARD] Initial task fetch failed: %v", err)
		}
	}
}

func (a *App) emitHydration() {
	if a.ctx == nil {
		return
	}
	payload := HydrationPayload{
		Auth:    a.auth.GetState(),
		Board:   a.tasks.GetState(),
		BaseURL: a.api.BaseURL(),
		Version: config.AppVersion,
	}
	if a.db != nil {
		if cfg, err := a.db.GetConfig(); err == nil {
			payload.Config = cfg
		}
	}
	runtime.EventsEmit(a.ctx, "app:hydration", payload)
}

func (a *App) emitEvent(eventName string, data interface{}) {
	if a.ctx == nil {
		return
	}
	if strings.TrimSpace(eventName) == "" {
		return
	}
	runtime.EventsEmit(a.ctx, eventName, data)
}

// onSessionExpired é a política de sessão irrecuperável: o interceptor já
// limpou o credstore; aqui a sessão em memória é zerada e o frontend
// redirecionado para o login via evento
func (a *App) onSessionExpired() {
	log.Println("[TASKBOARD] Session expired, forcing login")
	if a.feed != nil {
		a.feed.Stop()
	}
	if a.auth != nil {
		a.auth.Reset()
	}
	a.auditAuthEvent("session_expired", "Refresh token rejected or missing")
	a.emitEvent(auth.EventExpired, nil)
}

// onLiveEvent recarrega o quadro quando o backend empurra uma mudança
func (a *App) onLiveEvent(event live.Event) {
	log.Printf("[TASKBOARD] Live event: %s (%s)", event.Type, event.TaskID)
	ctx, cancel := context.WithTimeout(context.Background(), boundCallTimeout)
	defer cancel()
	if _, err := a.tasks.Fetch(ctx); err != nil {
		log.Printf("[TASKBOARD] Refresh after live event failed: %v", err)
	}
}

// auditAuthEvent registra eventos do ciclo de vida de auth, sanitizados
func (a *App) auditAuthEvent(action, details string) {
	if a.db == nil {
		return
	}
	event := &database.AuditLog{
		EventID: uuid.NewString(),
		Action:  action,
		Details: a.logSanitizer.Sanitize(details),
	}
	if err := a.db.SaveAuditEvent(event); err != nil {
		log.Printf("[TASKBOARD] Failed to save audit event: %v", err)
	}
}

// restoreAIProvider reativa o provider de sugestões salvo na config
func (a *App) restoreAIProvider() {
	if a.db == nil {
		return
	}
	cfg, err := a.db.GetConfig()
	if err != nil || cfg.AIProvider == "" {
		return
	}
	provider := ai.Provider{
		ID:     cfg.AIProvider,
		Model:  cfg.AIModel,
		APIKey: cfg.AIAPIKey,
	}
	if setErr := a.ai.SetProvider(provider); setErr != nil {
		log.Printf("[TASKBOARD] Could not restore AI provider: %v", setErr)
	}
}

// === Bindings de autenticação ===

// Login autentica e retorna o novo estado da sessão
func (a *App) Login(email, password string) (auth.State, error) {
	ctx, cancel := context.WithTimeout(context.Background(), boundCallTimeout)
	defer cancel()

	if err := a.auth.Login(ctx, email, password); err != nil {
		return a.auth.GetState(), err
	}
	a.feed.Start()
	go func() {
		fetchCtx, fetchCancel := context.WithTimeout(context.Background(), boundCallTimeout)
		defer fetchCancel()
		if _, err := a.tasks.Fetch(fetchCtx); err != nil {
			log.Printf("[TASKBOARD] Task fetch after login failed: %v", err)
		}
	}()
	return a.auth.GetState(), nil
}

// Register cria a conta; o usuário segue para o login em seguida
func (a *App) Register(email, password, fullName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), boundCallTimeout)
	defer cancel()
	return a.auth.Register(ctx, email, password, fullName)
}

// Logout encerra a sessão; nunca falha do ponto de vista da UI
func (a *App) Logout() auth.State {
	ctx, cancel := context.WithTimeout(context.Background(), boundCallTimeout)
	defer cancel()

	a.feed.Stop()
	a.auth.Logout(ctx)
	return a.auth.GetState()
}

// CheckAuth revalida a sessão armazenada e retorna o estado resultante
func (a *App) CheckAuth() auth.State {
	ctx, cancel := context.WithTimeout(context.Background(), boundCallTimeout)
	defer cancel()

	a.auth.CheckAuth(ctx)
	state := a.auth.GetState()
	if state.IsAuthenticated {
		a.feed.Start()
	}
	return state
}

// GetAuthState retorna o estado atual da sessão sem tocar na rede
func (a *App) GetAuthState() auth.State {
	return a.auth.GetState()
}

// RefreshSession renova o par de tokens explicitamente
func (a *App) RefreshSession() error {
	ctx, cancel := context.WithTimeout(context.Background(), boundCallTimeout)
	defer cancel()
	return a.auth.RefreshSession(ctx)
}

// FetchProfile recarrega o perfil do usuário autenticado
func (a *App) FetchProfile() (auth.State, error) {
	ctx, cancel := context.WithTimeout(context.Background(), boundCallTimeout)
	defer cancel()

	err := a.auth.FetchProfile(ctx)
	return a.auth.GetState(), err
}

// === Bindings do quadro de tarefas ===

// GetBoard retorna o estado atual do quadro (sem rede)
func (a *App) GetBoard() tasks.State {
	return a.tasks.GetState()
}

// GetTasks recarrega a lista do servidor
func (a *App) GetTasks() (tasks.State, error) {
	ctx, cancel := context.WithTimeout(context.Background(), boundCallTimeout)
	defer cancel()

	_, err := a.tasks.Fetch(ctx)
	return a.tasks.GetState(), err
}

// CreateTask cria uma tarefa nova
func (a *App) CreateTask(input tasks.CreateInput) (*tasks.Task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), boundCallTimeout)
	defer cancel()
	return a.tasks.Create(ctx, input)
}

// UpdateTask atualiza uma tarefa existente
func (a *App) UpdateTask(id string, input tasks.UpdateInput) (*tasks.Task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), boundCallTimeout)
	defer cancel()
	return a.tasks.Update(ctx, id, input)
}

// DeleteTask remove uma tarefa
func (a *App) DeleteTask(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), boundCallTimeout)
	defer cancel()
	return a.tasks.Delete(ctx, id)
}

// GetTaskSuggestions busca sugestões no backend; se o endpoint falhar e
// houver provider de IA configurado, gera localmente
func (a *App) GetTaskSuggestions(contextHint string) ([]tasks.Suggestion, error) {
	ctx, cancel := context.WithTimeout(context.Background(), boundCallTimeout)
	defer cancel()

	suggestions, err := a.tasks.Suggestions(ctx, contextHint)
	if err == nil {
		return suggestions, nil
	}
	if !a.ai.HasProvider() {
		return nil, err
	}

	log.Printf("[TASKBOARD] Suggestion endpoint failed (%v), falling back to AI provider", err)
	titles := make([]string, 0)
	for _, task := range a.tasks.GetState().Tasks {
		titles = append(titles, task.Title)
	}
	return a.ai.SuggestTasks(ctx, contextHint, titles, config.SuggestionLimit)
}

// === Bindings de configuração e diagnóstico ===

// AIListProviders retorna os providers de sugestão suportados
func (a *App) AIListProviders() []ai.Provider {
	return a.ai.ListProviders()
}

// AISetProvider ativa um provider e persiste a escolha na config local
func (a *App) AISetProvider(provider ai.Provider) error {
	if err := a.ai.SetProvider(provider); err != nil {
		return err
	}
	if a.db == nil {
		return nil
	}
	cfg, err := a.db.GetConfig()
	if err != nil {
		return err
	}
	cfg.AIProvider = provider.ID
	cfg.AIModel = provider.Model
	cfg.AIAPIKey = provider.APIKey
	return a.db.UpdateConfig(cfg)
}

// GetUserConfig retorna a configuração local
func (a *App) GetUserConfig() (*database.UserConfig, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database unavailable")
	}
	return a.db.GetConfig()
}

// SetTheme persiste o tema escolhido
func (a *App) SetTheme(theme string) error {
	if a.db == nil {
		return fmt.Errorf("database unavailable")
	}
	cfg, err := a.db.GetConfig()
	if err != nil {
		return err
	}
	cfg.Theme = theme
	return a.db.UpdateConfig(cfg)
}

// ListAuditEvents retorna os eventos de auditoria mais recentes
func (a *App) ListAuditEvents(limit int) ([]database.AuditLog, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database unavailable")
	}
	return a.db.ListAuditEvents(limit)
}

// GetAppInfo retorna metadados do app para a tela About
func (a *App) GetAppInfo() map[string]string {
	return map[string]string{
		"name":    config.AppName,
		"version": config.AppVersion,
		"baseUrl": a.api.BaseURL(),
	}
}

// === Adapters de persistência ===

// dbSnapshotSink grava o snapshot de sessão no SQLite (tokens ficam no
// keychain, nunca aqui)
type dbSnapshotSink struct {
	db *database.Service
}

func (s *dbSnapshotSink) SaveSession(user auth.User, isAuthenticated bool) error {
	if s.db == nil {
		return nil
	}
	return s.db.SaveSessionSnapshot(&database.SessionSnapshot{
		UserID:          user.ID,
		Email:           user.Email,
		FullName:        user.FullName,
		EmailConfirmed:  user.EmailConfirmed,
		IsAuthenticated: isAuthenticated,
	})
}

func (s *dbSnapshotSink) ClearSession() error {
	if s.db == nil {
		return nil
	}
	return s.db.ClearSessionSnapshot()
}

// dbTaskCache serializa o espelho do quadro para o cache offline
type dbTaskCache struct {
	db *database.Service
}

func (c *dbTaskCache) ReplaceAll(list []tasks.Task) error {
	if c.db == nil {
		return nil
	}
	cached := make([]database.CachedTask, 0, len(list))
	for i, task := range list {
		payload, err := json.Marshal(task)
		if err != nil {
			return err
		}
		cached = append(cached, database.CachedTask{
			TaskID:    task.ID,
			Payload:   string(payload),
			Status:    task.Status,
			SortOrder: i,
		})
	}
	return c.db.ReplaceCachedTasks(cached)
}

func (c *dbTaskCache) Load() ([]tasks.Task, error) {
	if c.db == nil {
		return nil, nil
	}
	cached, err := c.db.GetCachedTasks()
	if err != nil {
		return nil, err
	}
	out := make([]tasks.Task, 0, len(cached))
	for _, row := range cached {
		var task tasks.Task
		if err := json.Unmarshal([]byte(row.Payload), &task); err != nil {
			log.Printf("[TASKBOARD] Dropping corrupt cached task %s: %v", row.TaskID, err)
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

func (c *dbTaskCache) Delete(taskID string) error {
	if c.db == nil {
		return nil
	}
	return c.db.DeleteCachedTask(taskID)
}
