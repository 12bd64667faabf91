package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/domain/entity"
	"github.com/garyjia/freight-audit/internal/domain/gl"
	"github.com/garyjia/freight-audit/internal/domain/workflow"
	"github.com/garyjia/freight-audit/internal/export"
)

func TestAllocationService_SplitsUntilApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.register(t)

	alloc, err := f.allocations.InvoiceAllocation(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "gl-ocean", alloc.MatchedRule)
	require.Len(t, alloc.Segments, 2)
	assert.True(t, alloc.Segments[0].Amount.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, gl.SuspenseTarget.Code, alloc.Segments[1].Code)

	for _, step := range []struct{ id, role string }{
		{"step-ops", entity.RoleOpsManager},
		{"step-finance", entity.RoleFinanceManager},
		{"step-release", entity.RoleEnterpriseAdmin},
	} {
		_, err := f.workflow.Decide(ctx, inv.ID, decision(step.id, workflow.DecisionApprove, step.role))
		require.NoError(t, err)
	}

	alloc, err = f.allocations.InvoiceAllocation(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, alloc.Segments, 1)
	assert.True(t, alloc.Segments[0].Amount.Equal(decimal.NewFromInt(2678)))
}

// mockFileStorage records archived files
type mockFileStorage struct {
	saveFunc func(ctx context.Context, path string, content []byte) error
	saved    map[string][]byte
}

func (m *mockFileStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, path, content)
	}
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[path] = content
	return nil
}

func (m *mockFileStorage) Read(ctx context.Context, path string) ([]byte, error) {
	return m.saved[path], nil
}

func (m *mockFileStorage) Exists(ctx context.Context, path string) bool {
	_, ok := m.saved[path]
	return ok
}

func (m *mockFileStorage) GetFullPath(relativePath string) string {
	return "/archive/" + relativePath
}

func TestExportService_GLRegister(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	f.register(t)

	archive := &mockFileStorage{}
	svc := NewExportService(f.invoices, f.taxes, f.allocations, export.NewGLRegisterWriter(zap.NewNop()), archive, mockLogger{})
	svc.(*exportServiceImpl).now = func() time.Time { return testNow }

	name, data, err := svc.GLRegister(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gl-register-20250314-093000.xlsx", name)
	assert.NotEmpty(t, data)
	assert.Equal(t, data, archive.saved["gl-register/"+name])
}

func TestExportService_ArchiveFailureStillReturnsFile(t *testing.T) {
	f := newFixture(t)
	f.register(t)

	archive := &mockFileStorage{saveFunc: func(ctx context.Context, path string, content []byte) error {
		return errors.New("disk full")
	}}
	svc := NewExportService(f.invoices, f.taxes, f.allocations, export.NewGLRegisterWriter(zap.NewNop()), archive, mockLogger{})

	_, data, err := svc.GLRegister(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

type mockRegisterWriter struct {
	writeFunc func(rows []export.RegisterRow) ([]byte, error)
}

func (m *mockRegisterWriter) Write(rows []export.RegisterRow) ([]byte, error) {
	return m.writeFunc(rows)
}

func TestExportService_RowsCarryTaxAndSegments(t *testing.T) {
	f := newFixture(t)
	inv := f.register(t)

	var got []export.RegisterRow
	writer := &mockRegisterWriter{writeFunc: func(rows []export.RegisterRow) ([]byte, error) {
		got = rows
		return []byte("xlsx"), nil
	}}
	svc := NewExportService(f.invoices, f.taxes, f.allocations, writer, nil, mockLogger{})

	_, data, err := svc.GLRegister(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx"), data)
	require.Len(t, got, 1)
	assert.Equal(t, inv.ID, got[0].Invoice.ID)
	assert.Len(t, got[0].Segments, 2)
	assert.True(t, got[0].Tax.NetPayableToVendor.Equal(inv.Amount))
}
