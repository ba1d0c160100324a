package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/metrics"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

const auditWriteTimeout = 5 * time.Second

// AuditService appends admin activity to the log collection. Writes never
// fail the request that triggered them.
type AuditService struct {
	logs    repository.AuditLogRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewAuditService(logs repository.AuditLogRepository, m *metrics.Metrics, logger *zap.Logger) *AuditService {
	return &AuditService{logs: logs, metrics: m, logger: logger.Named("audit")}
}

// Record appends entry. The write outlives a canceled request context.
func (s *AuditService) Record(ctx context.Context, entry *model.Log) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	if err := s.logs.Append(ctx, entry); err != nil {
		s.metrics.AuditLogFailure.Inc()
		s.logger.Error("audit log write failed",
			zap.String("actor_id", entry.ActorID),
			zap.String("action", string(entry.Action)),
			zap.Error(err),
		)
	}
}

// ListByActor returns actorID's entries, newest first.
func (s *AuditService) ListByActor(ctx context.Context, actorID string, opts repository.ListOptions) ([]model.Log, error) {
	logs, err := s.logs.ListByActor(ctx, actorID, opts)
	if err != nil {
		return nil, fmt.Errorf("service/audit: listing %s: %w", actorID, err)
	}
	return logs, nil
}
