package service

import (
	"context"
	"log/slog"

	"olo_mining/internal/logger"
)

// AuditService writes audit events to the structured log.
type AuditService struct {
	log *slog.Logger
}

func NewAuditService() *AuditService {
	return &AuditService{log: logger.Component("audit")}
}

// Log records one action taken in an install.
func (s *AuditService) Log(ctx context.Context, installID, action, category string, details map[string]any) {
	if s == nil {
		return
	}
	args := []any{"install_id", installID, "action", action, "category", category}
	for k, v := range details {
		args = append(args, k, v)
	}
	s.log.InfoContext(ctx, "audit", args...)
}
