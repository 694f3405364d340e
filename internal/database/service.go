package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"taskboard/internal/config"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Service encapsula o acesso ao SQLite via GORM
type Service struct {
	db *gorm.DB
}

// NewService cria e inicializa o serviço de banco de dados
func NewService() (*Service, error) {
	dbPath, db, err := openWritableDatabase()
	if err != nil {
		return nil, err
	}

	// Auto-migrate todos os models
	if err := db.AutoMigrate(
		&UserConfig{},
		&SessionSnapshot{},
		&CachedTask{},
		&AuditLog{},
	); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate: %w", err)
	}

	// Definir permissão 0600 no arquivo do banco
	os.Chmod(dbPath, 0600)

	log.Printf("[DB] Database initialized at %s", dbPath)
	return &Service{db: db}, nil
}

func openWritableDatabase() (string, *gorm.DB, error) {
	candidates := make([]string, 0, 4)
	if override := strings.TrimSpace(os.Getenv("TASKBOARD_DB_PATH")); override != "" {
		candidates = append(candidates, override)
	}
	candidates = append(candidates, config.DBPath())

	if cwd, err := os.Getwd(); err == nil && strings.TrimSpace(cwd) != "" {
		candidates = append(candidates, filepath.Join(cwd, ".taskboard", config.DBFileName))
	}
	candidates = append(candidates, filepath.Join(os.TempDir(), "TaskBoard", config.DBFileName))

	var lastErr error
	for _, candidate := range candidates {
		path := strings.TrimSpace(candidate)
		if path == "" {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			lastErr = err
			continue
		}

		if !isLikelyWritable(path) {
			lastErr = fmt.Errorf("path not writable: %s", path)
			continue
		}

		db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			lastErr = err
			continue
		}

		sqlDB, err := db.DB()
		if err != nil {
			lastErr = err
			continue
		}

		sqlDB.Exec("PRAGMA journal_mode=WAL")
		sqlDB.Exec("PRAGMA busy_timeout=5000")
		sqlDB.Exec("PRAGMA synchronous=NORMAL")
		sqlDB.Exec("PRAGMA foreign_keys=ON")

		// Probe de escrita para evitar abrir DB readonly em ambientes sandbox.
		probeErr := db.Exec("CREATE TABLE IF NOT EXISTS _taskboard_write_probe (id INTEGER PRIMARY KEY AUTOINCREMENT)").Error
		if probeErr == nil {
			probeErr = db.Exec("INSERT INTO _taskboard_write_probe DEFAULT VALUES").Error
		}
		if probeErr == nil {
			_ = db.Exec("DELETE FROM _taskboard_write_probe WHERE id = (SELECT MAX(id) FROM _taskboard_write_probe)").Error
		}

		if probeErr != nil {
			lastErr = probeErr
			_ = sqlDB.Close()
			continue
		}

		return path, db, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no database path candidates available")
	}

	return "", nil, fmt.Errorf("failed to open writable database: %w", lastErr)
}

func isLikelyWritable(path string) bool {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// Close fecha a conexão com o banco
func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// === UserConfig ===

// GetConfig retorna a configuração do usuário (ou cria uma padrão)
func (s *Service) GetConfig() (*UserConfig, error) {
	var cfg UserConfig
	result := s.db.First(&cfg)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			cfg = UserConfig{
				UserID:   "local",
				Theme:    "dark",
				Language: "en",
			}
			s.db.Create(&cfg)
			return &cfg, nil
		}
		return nil, result.Error
	}
	return &cfg, nil
}

// UpdateConfig persiste a configuração do usuário
func (s *Service) UpdateConfig(cfg *UserConfig) error {
	return s.db.Save(cfg).Error
}

// === SessionSnapshot ===

// SaveSessionSnapshot grava (ou substitui) o snapshot único de sessão
func (s *Service) SaveSessionSnapshot(snapshot *SessionSnapshot) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&SessionSnapshot{}).Error; err != nil {
			return err
		}
		return tx.Create(snapshot).Error
	})
}

// GetSessionSnapshot retorna o snapshot de sessão, ou nil se não houver
func (s *Service) GetSessionSnapshot() (*SessionSnapshot, error) {
	var snapshot SessionSnapshot
	result := s.db.Order("updated_at DESC").First(&snapshot)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &snapshot, nil
}

// ClearSessionSnapshot remove qualquer snapshot de sessão persistido
func (s *Service) ClearSessionSnapshot() error {
	return s.db.Where("1 = 1").Delete(&SessionSnapshot{}).Error
}

// === CachedTask ===

// ReplaceCachedTasks substitui o cache offline inteiro pela lista dada
func (s *Service) ReplaceCachedTasks(tasks []CachedTask) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&CachedTask{}).Error; err != nil {
			return err
		}
		if len(tasks) == 0 {
			return nil
		}
		return tx.Create(&tasks).Error
	})
}

// GetCachedTasks retorna o cache offline na ordem do dashboard
func (s *Service) GetCachedTasks() ([]CachedTask, error) {
	var tasks []CachedTask
	if err := s.db.Order("sort_order ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// DeleteCachedTask remove uma tarefa do cache offline
func (s *Service) DeleteCachedTask(taskID string) error {
	return s.db.Where("task_id = ?", taskID).Delete(&CachedTask{}).Error
}

// === AuditLog ===

const maxAuditEvents = 1000

// SaveAuditEvent grava um evento de auditoria e poda os mais antigos
func (s *Service) SaveAuditEvent(event *AuditLog) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if err := s.db.Create(event).Error; err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&AuditLog{}).Count(&count).Error; err != nil {
		return nil
	}
	if count > maxAuditEvents {
		s.db.Exec("DELETE FROM audit_logs WHERE id IN (SELECT id FROM audit_logs ORDER BY id ASC LIMIT ?)", count-maxAuditEvents)
	}
	return nil
}

// ListAuditEvents retorna os eventos mais recentes (limit <= 0 vira 100)
func (s *Service) ListAuditEvents(limit int) ([]AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []AuditLog
	if err := s.db.Order("id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
