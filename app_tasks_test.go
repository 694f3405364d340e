package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"taskboard/internal/ai"
	"taskboard/internal/credstore"
	"taskboard/internal/tasks"
)

// fakeTaskBackend guarda as tarefas em memória e espelha o contrato REST
type fakeTaskBackend struct {
	mu    sync.Mutex
	next  int
	tasks []tasks.Task
}

func (b *fakeTaskBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(b.tasks)
		case http.MethodPost:
			var input tasks.CreateInput
			json.NewDecoder(r.Body).Decode(&input)
			b.next++
			task := tasks.Task{ID: "t" + string(rune('0'+b.next)), Title: input.Title, Status: input.Status, UserID: "u1"}
			if task.Status == "" {
				task.Status = tasks.StatusTodo
			}
			b.tasks = append(b.tasks, task)
			json.NewEncoder(w).Encode(task)
		}
	})
	mux.HandleFunc("/tasks/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		id := r.URL.Path[len("/tasks/"):]
		switch r.Method {
		case http.MethodPatch:
			var input tasks.UpdateInput
			json.NewDecoder(r.Body).Decode(&input)
			for i := range b.tasks {
				if b.tasks[i].ID == id {
					if input.Title != nil {
						b.tasks[i].Title = *input.Title
					}
					if input.Status != nil {
						b.tasks[i].Status = *input.Status
					}
					json.NewEncoder(w).Encode(b.tasks[i])
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
		case http.MethodDelete:
			kept := b.tasks[:0]
			for _, task := range b.tasks {
				if task.ID != id {
					kept = append(kept, task)
				}
			}
			b.tasks = kept
			w.WriteHeader(http.StatusNoContent)
		}
	})
	return mux
}

func TestAppTaskLifecycle(t *testing.T) {
	backend := &fakeTaskBackend{}
	app := newTestApp(t, backend.handler())
	credstore.SetTokenPair(app.creds, "AT1", "RT1")

	created, err := app.CreateTask(tasks.CreateInput{Title: "Escrever release notes"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if created.Status != tasks.StatusTodo {
		t.Fatalf("created.Status = %q, want TODO", created.Status)
	}

	status := tasks.StatusDone
	updated, err := app.UpdateTask(created.ID, tasks.UpdateInput{Status: &status})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if updated.Status != tasks.StatusDone {
		t.Fatalf("updated.Status = %q, want DONE", updated.Status)
	}

	board := app.GetBoard()
	if len(board.Tasks) != 1 || board.Tasks[0].Status != tasks.StatusDone {
		t.Fatalf("board = %+v", board.Tasks)
	}

	// O cache offline acompanha cada mutação
	cached, err := app.db.GetCachedTasks()
	if err != nil {
		t.Fatalf("GetCachedTasks() error = %v", err)
	}
	if len(cached) != 1 || cached[0].TaskID != created.ID {
		t.Fatalf("offline cache = %+v", cached)
	}

	if err := app.DeleteTask(created.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if board := app.GetBoard(); len(board.Tasks) != 0 {
		t.Fatalf("board after delete = %+v", board.Tasks)
	}
	cached, _ = app.db.GetCachedTasks()
	if len(cached) != 0 {
		t.Fatalf("offline cache after delete = %+v", cached)
	}
}

func TestAppBoardPaintsFromOfflineCacheOnColdStart(t *testing.T) {
	backend := &fakeTaskBackend{}
	app := newTestApp(t, backend.handler())
	credstore.SetTokenPair(app.creds, "AT1", "RT1")

	if _, err := app.CreateTask(tasks.CreateInput{Title: "Sobreviver ao restart"}); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	app.Shutdown(context.Background())

	// Segundo cold start com o mesmo banco e sem sessão: o quadro pinta
	// do cache antes de qualquer rede
	second := NewApp()
	second.creds = credstore.NewMemoryStore()
	second.Startup(context.Background())
	second.ctx = nil
	defer second.Shutdown(context.Background())

	second.bootstrapSession()

	board := second.GetBoard()
	if !board.FromCache {
		t.Fatalf("FromCache = false, want offline paint")
	}
	if len(board.Tasks) != 1 || board.Tasks[0].Title != "Sobreviver ao restart" {
		t.Fatalf("board from cache = %+v", board.Tasks)
	}
	if second.GetAuthState().IsAuthenticated {
		t.Fatalf("no stored tokens means no session")
	}
}

func TestAppSuggestionsFallBackToAIProvider(t *testing.T) {
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"response": `[{"title":"Revisar o backlog","description":"priorizar pendências"}]`,
		})
	}))
	defer llm.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/tasks/suggestions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	app := newTestApp(t, mux)

	if err := app.AISetProvider(ai.Provider{ID: "ollama", Endpoint: llm.URL}); err != nil {
		t.Fatalf("AISetProvider() error = %v", err)
	}

	suggestions, err := app.GetTaskSuggestions("sprint")
	if err != nil {
		t.Fatalf("GetTaskSuggestions() error = %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Title != "Revisar o backlog" {
		t.Fatalf("suggestions = %+v", suggestions)
	}

	// A escolha do provider sobrevive na config local
	cfg, err := app.GetUserConfig()
	if err != nil {
		t.Fatalf("GetUserConfig() error = %v", err)
	}
	if cfg.AIProvider != "ollama" {
		t.Fatalf("cfg.AIProvider = %q, want ollama", cfg.AIProvider)
	}
}

func TestAppSuggestionsPreferServerEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tasks/suggestions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"title":"Do servidor","description":""}]`))
	})
	app := newTestApp(t, mux)

	suggestions, err := app.GetTaskSuggestions("")
	if err != nil {
		t.Fatalf("GetTaskSuggestions() error = %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Title != "Do servidor" {
		t.Fatalf("suggestions = %+v", suggestions)
	}
}

func TestAppSuggestionsWithoutProviderPropagateServerError(t *testing.T) {
	app := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	if _, err := app.GetTaskSuggestions(""); err == nil {
		t.Fatalf("expected error when endpoint fails and no provider is set")
	}
}

func TestAppSetThemePersists(t *testing.T) {
	app := newTestApp(t, http.NewServeMux())

	if err := app.SetTheme("light"); err != nil {
		t.Fatalf("SetTheme() error = %v", err)
	}
	cfg, err := app.GetUserConfig()
	if err != nil {
		t.Fatalf("GetUserConfig() error = %v", err)
	}
	if cfg.Theme != "light" {
		t.Fatalf("cfg.Theme = %q, want light", cfg.Theme)
	}
}
