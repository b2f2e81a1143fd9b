// Package audit implements the AuditService sinks: a durable database store
// and a Kafka producer for downstream consumers.
package audit

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/openbaseline/compliance/internal/domain/models"
	"github.com/openbaseline/compliance/internal/domain/service"
	"github.com/openbaseline/compliance/pkg/errors"
	"github.com/openbaseline/compliance/pkg/logger"
)

// GormAuditService persists audit events in the service database. Events are
// written outside the caller's transaction: an audit row must survive even
// when the sink is the only writer left standing.
type GormAuditService struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewGormAuditService creates a database-backed audit sink.
func NewGormAuditService(db *gorm.DB, log logger.Logger) service.AuditService {
	return &GormAuditService{db: db, logger: log.WithComponent("GormAuditService")}
}

// LogEvent stores the event.
func (s *GormAuditService) LogEvent(ctx context.Context, event *models.AuditEvent) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		s.logger.Error(ctx, "Failed to persist audit event", err,
			logger.Fields{"event_type": event.EventType})
		return fmt.Errorf("%w: %v", errors.ErrDatabaseOperation, err)
	}
	return nil
}

// MultiAuditService fans one event out to several sinks. The first failure is
// returned but every sink is attempted.
type MultiAuditService struct {
	sinks []service.AuditService
}

// NewMultiAuditService combines audit sinks.
func NewMultiAuditService(sinks ...service.AuditService) service.AuditService {
	return &MultiAuditService{sinks: sinks}
}

func (s *MultiAuditService) LogEvent(ctx context.Context, event *models.AuditEvent) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.LogEvent(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
