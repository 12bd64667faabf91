package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/domain/entity"
	"github.com/garyjia/freight-audit/internal/domain/workflow"
)

// RoleRepository implements port.RoleRepository
type RoleRepository struct {
	doc document[[]entity.RoleDefinition]
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(store port.CollectionStore, logger *zap.Logger) port.RoleRepository {
	return &RoleRepository{
		doc: document[[]entity.RoleDefinition]{store: store, key: port.CollectionRoles, logger: logger},
	}
}

// List returns the saved roles or the built-in role table
func (r *RoleRepository) List(ctx context.Context) ([]entity.RoleDefinition, error) {
	roles, version, err := r.doc.load(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return workflow.DefaultRoles(), nil
	}
	return roles, nil
}
