package filewatcher

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceWindow = 500 * time.Millisecond

// Service monitora o arquivo de overrides locais (taskboard.json) e avisa
// os handlers registrados quando ele muda, para aplicar a nova URL de
// backend sem reiniciar o app
type Service struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	handlers []func(path string)
	debounce *time.Timer
	target   string
	closed   bool
}

// NewService cria o watcher do arquivo de overrides
func NewService() (*Service, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Service{watcher: watcher}, nil
}

// OnChange registra um handler chamado (debounced) a cada mudança
func (s *Service) OnChange(handler func(path string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Watch observa o diretório do arquivo alvo. O diretório, não o arquivo:
// editores costumam salvar via rename e o watch do arquivo morreria junto.
func (s *Service) Watch(overridePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("watcher is closed")
	}

	s.target = filepath.Clean(overridePath)
	if err := s.watcher.Add(filepath.Dir(s.target)); err != nil {
		return fmt.Errorf("could not watch %s: %w", filepath.Dir(s.target), err)
	}

	go s.eventLoop()
	log.Printf("[FileWatcher] Watching %s", s.target)
	return nil
}

func (s *Service) eventLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			s.scheduleNotify()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[FileWatcher] Error: %v", err)
		}
	}
}

// scheduleNotify coaliza a rajada de eventos de um único save
func (s *Service) scheduleNotify() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.debounce != nil {
		s.debounce.Stop()
	}
	target := s.target
	s.debounce = time.AfterFunc(debounceWindow, func() {
		s.mu.Lock()
		handlers := make([]func(string), len(s.handlers))
		copy(handlers, s.handlers)
		s.mu.Unlock()

		log.Printf("[FileWatcher] Override file changed: %s", target)
		for _, handler := range handlers {
			handler(target)
		}
	})
}

// Close encerra o watcher
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.debounce != nil {
		s.debounce.Stop()
	}
	return s.watcher.Close()
}
