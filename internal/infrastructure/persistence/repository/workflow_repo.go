package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/domain/entity"
	"github.com/garyjia/freight-audit/internal/domain/workflow"
)

// WorkflowConfigRepository implements port.WorkflowConfigRepository
type WorkflowConfigRepository struct {
	doc    document[*entity.WorkflowConfig]
	logger *zap.Logger
}

// NewWorkflowConfigRepository creates a new workflow configuration repository
func NewWorkflowConfigRepository(store port.CollectionStore, logger *zap.Logger) port.WorkflowConfigRepository {
	return &WorkflowConfigRepository{
		doc:    document[*entity.WorkflowConfig]{store: store, key: port.CollectionWorkflow, logger: logger},
		logger: logger,
	}
}

// Get returns the saved configuration or the default chain
func (r *WorkflowConfigRepository) Get(ctx context.Context) (*entity.WorkflowConfig, error) {
	cfg, _, err := r.doc.load(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return workflow.DefaultConfig(), nil
	}
	return cfg, nil
}

// Replace saves steps as a new configuration version
func (r *WorkflowConfigRepository) Replace(ctx context.Context, steps []entity.WorkflowStepConfig) (*entity.WorkflowConfig, error) {
	current, version, err := r.doc.load(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = workflow.DefaultConfig()
	}

	next := &entity.WorkflowConfig{
		Version:   current.Version + 1,
		Steps:     append([]entity.WorkflowStepConfig(nil), steps...),
		UpdatedAt: time.Now().UTC(),
	}

	if err := r.doc.save(ctx, next, version); err != nil {
		r.logger.Error("Failed to replace workflow configuration", zap.Int64("version", next.Version), zap.Error(err))
		return nil, fmt.Errorf("failed to replace workflow configuration: %w", err)
	}

	r.logger.Info("Workflow configuration replaced",
		zap.Int64("version", next.Version),
		zap.Int("steps", len(next.Steps)))
	return next, nil
}
