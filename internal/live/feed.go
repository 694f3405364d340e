package live

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	initialBackoff = 2 * time.Second
	maxBackoff     = 60 * time.Second
)

// Event é o aviso de mudança empurrado pelo backend
type Event struct {
	Type   string `json:"type"` // "task_created" | "task_updated" | "task_deleted"
	TaskID string `json:"taskId,omitempty"`
}

// Feed assina o canal WebSocket de mudanças de tarefas. Backend sem o
// endpoint degrada silenciosamente: o loop de reconexão continua em
// backoff e o dashboard segue com refresh manual.
type Feed struct {
	baseURL func() string
	token   func() string
	onEvent func(Event)

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// NewFeed cria o feed desconectado
func NewFeed(baseURL func() string, token func() string, onEvent func(Event)) *Feed {
	if onEvent == nil {
		onEvent = func(Event) {}
	}
	return &Feed{baseURL: baseURL, token: token, onEvent: onEvent}
}

// Start liga o loop de conexão; chamadas repetidas são no-op
func (f *Feed) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.running = true
	go f.run(ctx)
}

// Stop derruba a conexão e o loop de reconexão
func (f *Feed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return
	}
	f.cancel()
	f.running = false
}

func (f *Feed) run(ctx context.Context) {
	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		if err := f.connect(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[LIVE] Feed disconnected: %v (retrying in %s)", err, backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

// connect disca e bombeia eventos até a conexão cair
func (f *Feed) connect(ctx context.Context) error {
	feedURL, err := f.feedURL()
	if err != nil {
		return err
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, feedURL, nil)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Println("[LIVE] Task feed connected")

	// Derrubar a leitura bloqueante quando o contexto morrer
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Printf("[LIVE] Invalid feed message: %v", err)
			continue
		}
		if event.Type == "" {
			continue
		}
		f.onEvent(event)
	}
}

// feedURL converte a base http(s) do backend em ws(s)://.../ws/tasks
func (f *Feed) feedURL() (string, error) {
	parsed, err := url.Parse(strings.TrimRight(f.baseURL(), "/"))
	if err != nil {
		return "", err
	}
	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	default:
		parsed.Scheme = "ws"
	}
	parsed.Path += "/ws/tasks"

	if token := f.token(); token != "" {
		query := parsed.Query()
		query.Set("token", token)
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}
