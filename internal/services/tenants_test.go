package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pg-manager/internal/apperr"
	"pg-manager/internal/events"
	"pg-manager/internal/models"
	"pg-manager/internal/services"
)

func countRows(t *testing.T, e *env, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func TestRegisterTenantReturnsTemporaryPassword(t *testing.T) {
	e := newEnv(t)
	room := e.room(t, "101", 2)

	reg, err := e.tenants.Register(context.Background(), services.TenantInput{
		Email:         " Alice@Example.com ",
		FullName:      "Alice",
		RoomID:        &room.ID,
		DepositAmount: 10000,
	})
	require.NoError(t, err)

	assert.Len(t, reg.TemporaryPassword, 12)
	assert.True(t, reg.IsActive)
	assert.Equal(t, "2024-03-10", reg.CheckInDate.String())
	require.NotNil(t, reg.User)
	assert.Equal(t, "alice@example.com", reg.User.Email)
	assert.Equal(t, models.RoleTenant, reg.User.Role)
	assert.Equal(t, "hashed-"+reg.TemporaryPassword, reg.User.PasswordHash)
	assert.Contains(t, e.events.Subjects(), events.SubjectTenantRegistered)
}

// Room 101 has capacity 1: the second registration must be refused until
// the first tenant checks out.
func TestRoomCapacityScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	room := e.room(t, "101", 1)

	a := e.tenant(t, "a@example.com", &room.ID)

	_, err := e.tenants.Register(ctx, services.TenantInput{Email: "b@example.com", FullName: "B", RoomID: &room.ID})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict), err)
	assert.Contains(t, err.Error(), "room is fully occupied")
	assert.Equal(t, int64(1), countRows(t, e, &models.User{}), "failed registration must not leave a user behind")

	_, err = e.tenants.Checkout(ctx, a.ID)
	require.NoError(t, err)

	b := e.tenant(t, "b@example.com", &room.ID)
	assert.Equal(t, room.ID, *b.RoomID)

	got, err := e.rooms.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Occupancy)
	assert.LessOrEqual(t, got.Occupancy, got.Capacity)
}

func TestRegisterTenantRoomErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	retired := e.room(t, "909", 1)
	require.NoError(t, e.rooms.Delete(ctx, retired.ID))

	missing := uint(4242)
	_, err := e.tenants.Register(ctx, services.TenantInput{Email: "x@example.com", FullName: "X", RoomID: &missing})
	assert.True(t, apperr.Is(err, apperr.KindNotFound), err)

	_, err = e.tenants.Register(ctx, services.TenantInput{Email: "x@example.com", FullName: "X", RoomID: &retired.ID})
	assert.True(t, apperr.Is(err, apperr.KindValidation), err)

	assert.Equal(t, int64(0), countRows(t, e, &models.User{}))
	assert.Equal(t, int64(0), countRows(t, e, &models.Tenant{}))
}

func TestRegisterTenantDuplicateEmail(t *testing.T) {
	e := newEnv(t)
	e.tenant(t, "a@example.com", nil)

	_, err := e.tenants.Register(context.Background(), services.TenantInput{Email: "A@example.com", FullName: "Again"})
	assert.True(t, apperr.Is(err, apperr.KindConflict), err)
	assert.Equal(t, int64(1), countRows(t, e, &models.Tenant{}))
}

func TestRegisterTenantValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.tenants.Register(ctx, services.TenantInput{Email: "not-an-email", FullName: "X"})
	assert.True(t, apperr.Is(err, apperr.KindValidation), err)

	_, err = e.tenants.Register(ctx, services.TenantInput{Email: "x@example.com"})
	assert.True(t, apperr.Is(err, apperr.KindValidation), err)

	_, err = e.tenants.Register(ctx, services.TenantInput{Email: "x@example.com", FullName: "X", DepositAmount: -5})
	assert.True(t, apperr.Is(err, apperr.KindValidation), err)
}

func TestUpdateTenantRevalidatesRoomAndEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	full := e.room(t, "101", 1)
	free := e.room(t, "102", 2)
	e.tenant(t, "a@example.com", &full.ID)
	b := e.tenant(t, "b@example.com", &free.ID)

	_, err := e.tenants.Update(ctx, b.ID, services.TenantPatch{RoomID: &full.ID})
	assert.True(t, apperr.Is(err, apperr.KindConflict), err)

	_, err = e.tenants.Update(ctx, b.ID, services.TenantPatch{Email: ptr("a@example.com")})
	assert.True(t, apperr.Is(err, apperr.KindConflict), err)

	updated, err := e.tenants.Update(ctx, b.ID, services.TenantPatch{
		Email:    ptr("b2@example.com"),
		FullName: ptr("Bee"),
		RoomID:   &free.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bee", updated.FullName)
	assert.Equal(t, "b2@example.com", updated.User.Email)

	_, err = e.tenants.Update(ctx, 999, services.TenantPatch{FullName: ptr("Nobody")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound), err)
}

func TestCheckoutTenant(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	room := e.room(t, "101", 2)
	a := e.tenant(t, "a@example.com", &room.ID)

	before, err := e.rooms.Get(ctx, room.ID)
	require.NoError(t, err)

	out, err := e.tenants.Checkout(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, out.IsActive)
	require.NotNil(t, out.CheckOutDate)
	assert.Equal(t, "2024-03-10", out.CheckOutDate.String())
	assert.True(t, out.User.IsActive, "login account stays active")

	after, err := e.rooms.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Occupancy-1, after.Occupancy)

	_, err = e.tenants.Checkout(ctx, a.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState), err)

	_, err = e.tenants.Checkout(ctx, 999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), err)

	assert.Contains(t, e.events.Subjects(), events.SubjectTenantCheckedOut)
}

func TestListAndGetTenants(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.tenant(t, "a@example.com", nil)
	b := e.tenant(t, "b@example.com", nil)
	_, err := e.tenants.Checkout(ctx, b.ID)
	require.NoError(t, err)

	active, err := e.tenants.List(ctx, services.TenantListFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)

	all, err := e.tenants.List(ctx, services.TenantListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := e.tenants.Get(ctx, tenantPrincipal(a), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.User.Email)

	_, err = e.tenants.Get(ctx, tenantPrincipal(a), b.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden), err)

	_, err = e.tenants.Get(ctx, admin, b.ID)
	assert.NoError(t, err)
}
