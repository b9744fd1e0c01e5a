package tracker

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sijujiampugi-arch/SpendWise/permission"
)

func TestShareExpenseValidation(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x")
	e := f.expense(t, alice, "10", "Fuel")

	tests := []struct {
		name    string
		grantee string
		level   string
	}{
		{"self share", "A@x", "view"},
		{"bad email", "nobody", "view"},
		{"bad level", "b@x", "delete"},
		{"empty level", "b@x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ShareExpense(f.ctx, alice.ID, e.ID, tt.grantee, tt.level)
			assert.ErrorIs(t, err, ErrInvalidGrant)
		})
	}

	_, err := f.svc.ShareExpense(f.ctx, alice.ID, uuid.New(), "b@x", "view")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShareExpenseUpsertsPerGrantee(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x")
	bob := f.register(t, "b@x")
	e := f.expense(t, alice, "10", "Fuel")

	first, err := f.svc.ShareExpense(f.ctx, alice.ID, e.ID, "b@x", "view")
	require.NoError(t, err)
	second, err := f.svc.ShareExpense(f.ctx, alice.ID, e.ID, "B@X", "edit")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, permission.LevelEdit, second.Permission)

	grants, err := f.svc.ListShares(f.ctx, bob.ID, e.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)

	caps, err := f.svc.ResolvePermissions(f.ctx, bob.ID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, permission.Capabilities{View: true, Edit: true}, caps)
	assert.Equal(t, 2, f.events.count(EventShareGranted))
}

func TestShareRequiresShareCapability(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x")
	bob := f.register(t, "b@x")
	carol := f.register(t, "c@x")
	f.setRole(t, carol, permission.RoleCoOwner)
	e := f.expense(t, alice, "10", "Fuel")

	_, err := f.svc.ShareExpense(f.ctx, bob.ID, e.ID, "d@x", "view")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.ShareExpense(f.ctx, carol.ID, e.ID, "d@x", "view")
	assert.ErrorIs(t, err, ErrForbidden, "co-owners edit and delete but never share")

	own := f.expense(t, bob, "5", "Fuel")
	_, err = f.svc.ShareExpense(f.ctx, bob.ID, own.ID, "d@x", "view")
	assert.NoError(t, err)
}

func TestRemoveShare(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x")
	bob := f.register(t, "b@x")
	carol := f.register(t, "c@x")
	e := f.expense(t, alice, "10", "Fuel")

	toBob, err := f.svc.ShareExpense(f.ctx, alice.ID, e.ID, "b@x", "view")
	require.NoError(t, err)
	toCarol, err := f.svc.ShareExpense(f.ctx, alice.ID, e.ID, "c@x", "view")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.RemoveShare(f.ctx, carol.ID, toBob.ID), ErrForbidden)
	assert.NoError(t, f.svc.RemoveShare(f.ctx, bob.ID, toBob.ID), "grantees may drop their own grant")
	assert.ErrorIs(t, f.svc.RemoveShare(f.ctx, bob.ID, toBob.ID), ErrNotFound)
	assert.NoError(t, f.svc.RemoveShare(f.ctx, alice.ID, toCarol.ID))
	assert.Equal(t, 2, f.events.count(EventShareRevoked))
}
