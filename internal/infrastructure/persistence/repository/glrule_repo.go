package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/application/port"
	"github.com/garyjia/freight-audit/internal/domain/entity"
	"github.com/garyjia/freight-audit/internal/domain/gl"
)

// GLRuleRepository implements port.GLRuleRepository
type GLRuleRepository struct {
	doc document[[]entity.GLRule]
}

// NewGLRuleRepository creates a new GL rule repository
func NewGLRuleRepository(store port.CollectionStore, logger *zap.Logger) port.GLRuleRepository {
	return &GLRuleRepository{
		doc: document[[]entity.GLRule]{store: store, key: port.CollectionGLRules, logger: logger},
	}
}

// List returns the saved rule table or the default one
func (r *GLRuleRepository) List(ctx context.Context) ([]entity.GLRule, error) {
	rules, version, err := r.doc.load(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return gl.DefaultRules(), nil
	}
	return rules, nil
}
