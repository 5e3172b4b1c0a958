package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pg-manager/internal/access"
	"pg-manager/internal/models"
)

func TestRoleGateTable(t *testing.T) {
	adminOnly := []access.Capability{
		access.RoomWrite, access.TenantWrite, access.TenantList,
		access.PaymentVerify, access.MaintenanceUpdate, access.MaintenanceStats, access.ReportRead,
	}
	tenantOnly := []access.Capability{access.MaintenanceCreate, access.PaymentSubmit, access.Notifications}
	both := []access.Capability{
		access.ProfileRead, access.RoomRead, access.TenantRead,
		access.PaymentRead, access.MaintenanceRead, access.FileUpload,
	}

	for _, c := range adminOnly {
		assert.True(t, access.Allowed(models.RoleAdmin, c), c)
		assert.False(t, access.Allowed(models.RoleTenant, c), c)
	}
	for _, c := range tenantOnly {
		assert.False(t, access.Allowed(models.RoleAdmin, c), c)
		assert.True(t, access.Allowed(models.RoleTenant, c), c)
	}
	for _, c := range both {
		assert.True(t, access.Allowed(models.RoleAdmin, c), c)
		assert.True(t, access.Allowed(models.RoleTenant, c), c)
	}
}

func TestUnknownRoleHasNoCapabilities(t *testing.T) {
	assert.False(t, access.Allowed(models.Role("guest"), access.RoomRead))
}

func TestPrincipalOwnership(t *testing.T) {
	u := &models.User{ID: 7, Role: models.RoleTenant, Tenant: &models.Tenant{ID: 3}}
	p := access.PrincipalFor(u)

	assert.True(t, p.CanSeeTenant(3))
	assert.False(t, p.CanSeeTenant(4))

	admin := access.PrincipalFor(&models.User{ID: 1, Role: models.RoleAdmin})
	assert.Nil(t, admin.TenantID)
	assert.True(t, admin.CanSeeTenant(4))
}
