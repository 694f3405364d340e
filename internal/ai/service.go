package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"taskboard/internal/tasks"
)

// Service gera sugestões de tarefas localmente quando o endpoint
// /tasks/suggestions do backend não está disponível
type Service struct {
	mu        sync.RWMutex
	provider  providerClient
	info      Provider
	sanitizer *SecretSanitizer
}

// NewService cria o serviço sem provider configurado
func NewService() *Service {
	return &Service{sanitizer: NewSecretSanitizer()}
}

// SetProvider troca o provider ativo; Provider vazio desativa
func (s *Service) SetProvider(p Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		s.provider = nil
		s.info = Provider{}
		return nil
	}

	client, err := buildProvider(p)
	if err != nil {
		return err
	}
	s.provider = client
	s.info = p
	log.Printf("[AI] Provider set to %s (%s)", p.ID, p.Model)
	return nil
}

// HasProvider reporta se há um provider ativo
func (s *Service) HasProvider() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider != nil
}

// ListProviders retorna os providers suportados pelo app
func (s *Service) ListProviders() []Provider {
	return []Provider{
		{ID: "openai", Name: "GPT-4.1", Model: "gpt-4.1-mini"},
		{ID: "gemini", Name: "Gemini", Model: "gemini-2.5-flash"},
		{ID: "ollama", Name: "Llama 3", Model: "llama3", Endpoint: "http://localhost:11434"},
	}
}

// SuggestTasks pede ao provider ativo um lote de sugestões de tarefas.
// O contexto e os títulos existentes passam pelo sanitizador antes de
// qualquer prompt sair do processo.
func (s *Service) SuggestTasks(ctx context.Context, contextHint string, existingTitles []string, limit int) ([]tasks.Suggestion, error) {
	s.mu.RLock()
	provider := s.provider
	s.mu.RUnlock()

	if provider == nil {
		return nil, fmt.Errorf("no AI provider configured")
	}
	if limit <= 0 {
		limit = 5
	}

	prompt := s.buildPrompt(contextHint, existingTitles, limit)
	raw, err := provider.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("suggestion generation failed: %w", err)
	}

	suggestions, err := parseSuggestions(raw)
	if err != nil {
		return nil, err
	}
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

func (s *Service) buildPrompt(contextHint string, existingTitles []string, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest %d new tasks for a personal task board.\n", limit)
	if hint := strings.TrimSpace(contextHint); hint != "" {
		fmt.Fprintf(&b, "Board context: %s\n", s.sanitizer.Clean(hint))
	}
	if len(existingTitles) > 0 {
		b.WriteString("Existing tasks (do not repeat them):\n")
		for _, title := range existingTitles {
			fmt.Fprintf(&b, "- %s\n", s.sanitizer.Clean(title))
		}
	}
	b.WriteString(`Respond with ONLY a JSON array, no prose: [{"title":"...","description":"..."}]`)
	return b.String()
}

// parseSuggestions extrai o array JSON da resposta, tolerando cercas de código
func parseSuggestions(raw string) ([]tasks.Suggestion, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("provider response is not a JSON array")
	}

	var suggestions []tasks.Suggestion
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &suggestions); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}

	kept := suggestions[:0]
	for _, suggestion := range suggestions {
		if strings.TrimSpace(suggestion.Title) != "" {
			kept = append(kept, suggestion)
		}
	}
	return kept, nil
}
