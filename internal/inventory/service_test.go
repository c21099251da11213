package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

var auditTime = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s := New(db.NewTestEmployeesDB(t), db.NewTestEquipmentDB(t))
	s.Now = func() time.Time { return auditTime }
	return s
}

func TestAssignmentScenario(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	emp, err := s.AddEmployee(ctx, "Ana", "Kovač", "Acme")
	require.NoError(t, err)
	assert.Equal(t, int64(1), emp.ID)
	assert.Equal(t, "Ana Kovač (Acme)", emp.Label())

	eq, err := s.AddEquipment(ctx, "Dell 24in", "Monitor", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), eq.ID)
	assert.Equal(t, model.Unassigned, eq.AssignedTo)

	eq, err = s.AssignToEmployee(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ana Kovač (Acme)", eq.AssignedTo)

	eq, err = s.RecordAudit(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, eq.LastAudit)
	assert.True(t, eq.LastAudit.Equal(auditTime))
	assert.Equal(t, "Ana Kovač (Acme)", eq.AssignedTo)

	eq, err = s.Unassign(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.Unassigned, eq.AssignedTo)
	require.NotNil(t, eq.LastAudit)
	assert.True(t, eq.LastAudit.Equal(auditTime), "unassign must not touch last_audit")
}

func TestAssignedEquipmentFollowsAssignment(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	emp, _ := s.AddEmployee(ctx, "Ana", "Kovač", "Acme")
	laptop, _ := s.AddEquipment(ctx, "ThinkPad", "Laptop", "")
	s.AddEquipment(ctx, "MX Keys", "Keyboard", "")

	_, err := s.AssignToEmployee(ctx, laptop.ID, emp.ID)
	require.NoError(t, err)

	held, err := s.AssignedEquipment(ctx, emp.ID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, laptop.ID, held[0].ID)

	_, err = s.Unassign(ctx, laptop.ID)
	require.NoError(t, err)

	held, err = s.AssignedEquipment(ctx, emp.ID)
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestUnassignIsIdempotent(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	eq, _ := s.AddEquipment(ctx, "Dell 24in", "Monitor", "")

	for i := 0; i < 2; i++ {
		got, err := s.Unassign(ctx, eq.ID)
		require.NoError(t, err)
		assert.Equal(t, model.Unassigned, got.AssignedTo)
	}
}

func TestAssignToEmployeeErrors(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	emp, _ := s.AddEmployee(ctx, "Ana", "Kovač", "Acme")
	eq, _ := s.AddEquipment(ctx, "Dell 24in", "Monitor", "")

	_, err := s.AssignToEmployee(ctx, eq.ID, 999)
	var nf *model.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "employee", nf.Entity)

	_, err = s.AssignToEmployee(ctx, 999, emp.ID)
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "equipment", nf.Entity)

	got, err := s.GetEquipment(ctx, eq.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Unassigned, got.AssignedTo)
}

func TestRecordAuditMissingEquipment(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.RecordAudit(ctx, 999)
	assert.ErrorIs(t, err, model.ErrNotFound)

	all, err := s.ListEquipment(ctx, store.EquipmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAddEquipmentAssigneeMustResolve(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.AddEquipment(ctx, "ThinkPad", "Laptop", "Nobody Here (Acme)")
	assert.ErrorIs(t, err, model.ErrValidation)

	s.AddEmployee(ctx, "Ana", "Kovač", "Acme")
	eq, err := s.AddEquipment(ctx, "ThinkPad", "Laptop", "Ana Kovač (Acme)")
	require.NoError(t, err)
	assert.Equal(t, "Ana Kovač (Acme)", eq.AssignedTo)

	eq, err = s.AddEquipment(ctx, "Spare", "Mouse", model.Unassigned)
	require.NoError(t, err)
	assert.Equal(t, model.Unassigned, eq.AssignedTo)
}

func TestDeleteEmployeeLeavesLabelDangling(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	emp, _ := s.AddEmployee(ctx, "Ana", "Kovač", "Acme")
	eq, _ := s.AddEquipment(ctx, "ThinkPad", "Laptop", "")
	s.AssignToEmployee(ctx, eq.ID, emp.ID)

	deleted, err := s.DeleteEmployee(ctx, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Kovač (Acme)", deleted.Label())

	got, err := s.GetEquipment(ctx, eq.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Kovač (Acme)", got.AssignedTo)

	_, err = s.DeleteEmployee(ctx, emp.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteEquipment(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	eq, _ := s.AddEquipment(ctx, "ThinkPad", "Laptop", "")

	deleted, err := s.DeleteEquipment(ctx, eq.ID)
	require.NoError(t, err)
	assert.Equal(t, "ThinkPad", deleted.Name)

	_, err = s.DeleteEquipment(ctx, eq.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDecomposedInputMatchesLabel(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	emp, _ := s.AddEmployee(ctx, "Ana", "Kovač", "Acme")
	eq, err := s.AddEquipment(ctx, "ThinkPad", "Laptop", "Ana Kovac\u030c (Acme)")
	require.NoError(t, err)

	held, err := s.AssignedEquipment(ctx, emp.ID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, eq.ID, held[0].ID)
}
