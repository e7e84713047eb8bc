// Package service is the voter repository: the sole mutation path for voter
// records. It composes the invariant guards for validation and the visibility
// engine for access decisions; stores stay pure I/O underneath it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"canvass/internal/audit"
	"canvass/internal/visibility"
	"canvass/internal/voter/metrics"
	"canvass/internal/voter/store"
	dErrors "canvass/pkg/domain-errors"
	"canvass/pkg/platform/sentinel"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks AuditPublisher

// AuditPublisher is the sink for operational audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Config carries the environment facts the repository needs for its
// restricted operations.
type Config struct {
	// Production gates the deleted-voters listing: outside production any
	// viewer may inspect it, in production only the privileged account.
	Production bool

	// PrivilegedUserID names the one account allowed to list deleted voters
	// in production.
	PrivilegedUserID string
}

// Service implements every repository operation over an injected store.
type Service struct {
	store   store.Store
	engine  *visibility.Engine
	auditor AuditPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	cfg     Config
}

// Option configures optional collaborators.
type Option func(*Service)

// WithMetrics attaches the voter feature metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New builds the repository service. store, engine, auditor and logger are
// required.
func New(st store.Store, engine *visibility.Engine, auditor AuditPublisher, logger *slog.Logger, cfg Config, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("voter store is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("visibility engine is required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit publisher is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	s := &Service{store: st, engine: engine, auditor: auditor, logger: logger, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// translateStore maps store sentinel errors into the domain taxonomy.
// Unclassified failures become CodeInternal and keep their cause for logging.
func translateStore(err error, operation string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "voter not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "record changed concurrently, retry the operation")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure during "+operation)
	}
}
