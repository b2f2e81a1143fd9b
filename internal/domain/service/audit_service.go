package service

import (
	"context"

	"github.com/openbaseline/compliance/internal/domain/models"
)

//go:generate mockery --name AuditService --output mocks --outpkg mocks

// AuditService is the sink for audit lines and structured domain events.
// Delivery mechanics (database, message broker) live in the infrastructure
// layer; the core's obligation is producing well-formed, greppable events.
type AuditService interface {
	LogEvent(ctx context.Context, event *models.AuditEvent) error
}

// nopAuditService discards events. Used when no sink is configured.
type nopAuditService struct{}

// NewNopAuditService returns an AuditService that discards everything.
func NewNopAuditService() AuditService {
	return &nopAuditService{}
}

func (n *nopAuditService) LogEvent(ctx context.Context, event *models.AuditEvent) error {
	return nil
}
