package tasks

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"taskboard/internal/api"
)

// Cache é o armazenamento offline da última lista vista.
// Implementado sobre o SQLite local; opcional (nil desliga o cache).
type Cache interface {
	ReplaceAll(tasks []Task) error
	Load() ([]Task, error)
	Delete(taskID string) error
}

// EmitFunc publica eventos reativos para o frontend
type EmitFunc func(eventName string, data interface{})

// Service é o store de tarefas: espelha a lista do servidor em memória,
// reconcilia mutações localmente e mantém o cache offline em dia
type Service struct {
	api   *api.Client
	cache Cache
	emit  EmitFunc

	mu        sync.RWMutex
	tasks     []Task
	err       string
	fromCache bool
}

// NewService cria o store de tarefas vazio
func NewService(apiClient *api.Client, cache Cache, emit EmitFunc) *Service {
	if emit == nil {
		emit = func(string, interface{}) {}
	}
	return &Service{api: apiClient, cache: cache, emit: emit}
}

// GetState retorna uma cópia do estado atual do quadro
func (s *Service) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return State{Tasks: out, Error: s.err, FromCache: s.fromCache}
}

// LoadCache pinta o quadro com o cache offline antes do primeiro fetch
func (s *Service) LoadCache() {
	if s.cache == nil {
		return
	}
	cached, err := s.cache.Load()
	if err != nil || len(cached) == 0 {
		return
	}

	s.mu.Lock()
	s.tasks = cached
	s.fromCache = true
	s.mu.Unlock()

	log.Printf("[TASKS] Painted %d tasks from offline cache", len(cached))
	s.emit(EventChanged, s.GetState())
}

// Fetch recarrega a lista inteira do servidor
func (s *Service) Fetch(ctx context.Context) ([]Task, error) {
	var fetched []Task
	if err := s.api.Get(ctx, "/tasks", &fetched); err != nil {
		s.setError(api.ErrorMessage(err, "Failed to fetch tasks"))
		return nil, err
	}
	if fetched == nil {
		fetched = []Task{}
	}

	s.mu.Lock()
	s.tasks = fetched
	s.err = ""
	s.fromCache = false
	s.mu.Unlock()

	s.writeCache()
	s.emit(EventChanged, s.GetState())
	return fetched, nil
}

// Get retorna uma tarefa pelo id (servidor, não o espelho local)
func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	var task Task
	if err := s.api.Get(ctx, "/tasks/"+url.PathEscape(id), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Create cria a tarefa no servidor e a insere no topo do quadro
func (s *Service) Create(ctx context.Context, input CreateInput) (*Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("task title is required")
	}
	if input.Status != "" && !ValidStatus(input.Status) {
		return nil, fmt.Errorf("invalid task status %q", input.Status)
	}

	var created Task
	if err := s.api.Post(ctx, "/tasks", input, &created); err != nil {
		s.setError(api.ErrorMessage(err, "Failed to create task"))
		return nil, err
	}

	s.mu.Lock()
	s.tasks = append([]Task{created}, s.tasks...)
	s.err = ""
	s.mu.Unlock()

	s.writeCache()
	s.emit(EventChanged, s.GetState())
	return &created, nil
}

// Update atualiza a tarefa no servidor e substitui o espelho local
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*Task, error) {
	if input.Status != nil && !ValidStatus(*input.Status) {
		return nil, fmt.Errorf("invalid task status %q", *input.Status)
	}

	var updated Task
	if err := s.api.Patch(ctx, "/tasks/"+url.PathEscape(id), input, &updated); err != nil {
		s.setError(api.ErrorMessage(err, "Failed to update task"))
		return nil, err
	}

	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i] = updated
			break
		}
	}
	s.err = ""
	s.mu.Unlock()

	s.writeCache()
	s.emit(EventChanged, s.GetState())
	return &updated, nil
}

// Delete remove a tarefa no servidor e no espelho local
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, "/tasks/"+url.PathEscape(id)); err != nil {
		s.setError(api.ErrorMessage(err, "Failed to delete task"))
		return err
	}

	s.mu.Lock()
	kept := s.tasks[:0]
	for _, task := range s.tasks {
		if task.ID != id {
			kept = append(kept, task)
		}
	}
	s.tasks = kept
	s.err = ""
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Delete(id); err != nil {
			log.Printf("[TASKS] Failed to drop task %s from cache: %v", id, err)
		}
	}
	s.emit(EventChanged, s.GetState())
	return nil
}

// Suggestions pede sugestões de tarefas ao backend
func (s *Service) Suggestions(ctx context.Context, contextHint string) ([]Suggestion, error) {
	path := "/tasks/suggestions"
	if strings.TrimSpace(contextHint) != "" {
		path += "?context=" + url.QueryEscape(contextHint)
	}

	var suggestions []Suggestion
	if err := s.api.Get(ctx, path, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

func (s *Service) setError(message string) {
	s.mu.Lock()
	s.err = message
	s.mu.Unlock()
	s.emit(EventChanged, s.GetState())
}

func (s *Service) writeCache() {
	if s.cache == nil {
		return
	}
	s.mu.RLock()
	snapshot := make([]Task, len(s.tasks))
	copy(snapshot, s.tasks)
	s.mu.RUnlock()

	if err := s.cache.ReplaceAll(snapshot); err != nil {
		log.Printf("[TASKS] Failed to write offline cache: %v", err)
	}
}
