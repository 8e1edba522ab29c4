package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/events"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/repositories"
	"github.com/Blue-Chocolate/Haqqeq360-sub001/internal/validator"
)

// ServiceManagerConfig controls which optional concerns are enabled.
type ServiceManagerConfig struct {
	EnableEvents bool
	EnableExport bool
}

func DefaultServiceManagerConfig() ServiceManagerConfig {
	return ServiceManagerConfig{
		EnableEvents: true,
		EnableExport: true,
	}
}

type serviceManager struct {
	mu sync.RWMutex

	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	config    ServiceManagerConfig

	initialized bool

	test     TestService
	question QuestionService
	attempt  AttemptService
	grading  GradingService
	export   ExportService
}

func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
		config:    config,
	}
}

// NewDefaultServiceManager builds a manager with every service enabled.
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) ServiceManager {
	return NewServiceManager(db, repo, logger, v, publisher, DefaultServiceManagerConfig())
}

func (m *serviceManager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	if m.db == nil {
		return fmt.Errorf("database is required")
	}
	if m.repo == nil {
		return fmt.Errorf("repository is required")
	}

	publisher := m.publisher
	if publisher == nil || !m.config.EnableEvents {
		// Events disabled: record locally so callers need no nil checks
		publisher = events.NewMockEventPublisher(m.logger)
	}

	m.grading = NewGradingService(m.repo, m.db, m.logger, m.validator, publisher)
	m.test = NewTestService(m.repo, m.db, m.logger, m.validator, publisher)
	m.question = NewQuestionService(m.repo, m.db, m.logger, m.validator)
	m.attempt = NewAttemptService(m.repo, m.db, m.logger, m.validator, m.grading, publisher)

	if m.config.EnableExport {
		m.export = NewExportService(m.repo, m.grading, m.logger)
	}

	m.initialized = true
	m.logger.Info("Services initialized",
		"events_enabled", m.config.EnableEvents,
		"export_enabled", m.config.EnableExport)

	return nil
}

func (m *serviceManager) Test() TestService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.initialized {
		panic("service manager not initialized")
	}
	return m.test
}

func (m *serviceManager) Question() QuestionService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.initialized {
		panic("service manager not initialized")
	}
	return m.question
}

func (m *serviceManager) Attempt() AttemptService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.initialized {
		panic("service manager not initialized")
	}
	return m.attempt
}

func (m *serviceManager) Grading() GradingService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.initialized {
		panic("service manager not initialized")
	}
	return m.grading
}

func (m *serviceManager) Export() ExportService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.initialized {
		panic("service manager not initialized")
	}
	if m.export == nil {
		panic("export service disabled")
	}
	return m.export
}

// HealthCheck reports per-dependency status.
func (m *serviceManager) HealthCheck(ctx context.Context) (map[string]error, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := make(map[string]error)

	if !m.initialized {
		return nil, fmt.Errorf("service manager not initialized")
	}

	status["repository"] = m.repo.Ping(ctx)

	if sqlDB, err := m.db.DB(); err != nil {
		status["database"] = err
	} else {
		status["database"] = sqlDB.PingContext(ctx)
	}

	for name, err := range status {
		if err != nil {
			return status, fmt.Errorf("health check failed for %s: %w", name, err)
		}
	}

	return status, nil
}

func (m *serviceManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil
	}

	if m.publisher != nil {
		if err := m.publisher.Close(); err != nil {
			m.logger.Warn("Failed to close event publisher", "error", err)
		}
	}

	m.initialized = false
	m.logger.Info("Services shut down")
	return nil
}
