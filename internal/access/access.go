// Package access holds the authorization table: which role may perform
// which operation. Routes declare a Capability and the auth middleware
// checks it once per request.
package access

import "pg-manager/internal/models"

type Capability string

const (
	ProfileRead Capability = "profile:read"

	RoomRead  Capability = "room:read"
	RoomWrite Capability = "room:write"

	TenantRead  Capability = "tenant:read"
	TenantList  Capability = "tenant:list"
	TenantWrite Capability = "tenant:write"

	PaymentRead   Capability = "payment:read"
	PaymentSubmit Capability = "payment:submit"
	PaymentVerify Capability = "payment:verify"

	MaintenanceRead   Capability = "maintenance:read"
	MaintenanceCreate Capability = "maintenance:create"
	MaintenanceUpdate Capability = "maintenance:update"
	MaintenanceStats  Capability = "maintenance:stats"

	ReportRead    Capability = "report:read"
	Notifications Capability = "notifications:read"
	FileUpload    Capability = "file:upload"
)

var table = map[models.Role]map[Capability]bool{
	models.RoleAdmin: set(
		ProfileRead,
		RoomRead, RoomWrite,
		TenantRead, TenantList, TenantWrite,
		PaymentRead, PaymentVerify,
		MaintenanceRead, MaintenanceUpdate, MaintenanceStats,
		ReportRead,
		FileUpload,
	),
	models.RoleTenant: set(
		ProfileRead,
		RoomRead,
		TenantRead,
		PaymentRead, PaymentSubmit,
		MaintenanceRead, MaintenanceCreate,
		Notifications,
		FileUpload,
	),
}

func set(caps ...Capability) map[Capability]bool {
	m := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		m[c] = true
	}
	return m
}

// Allowed reports whether role holds capability. Unknown roles hold nothing.
func Allowed(role models.Role, c Capability) bool {
	return table[role][c]
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   uint
	Role     models.Role
	TenantID *uint
}

func (p Principal) IsAdmin() bool { return p.Role == models.RoleAdmin }

// CanSeeTenant reports whether the caller may read records owned by tenantID.
func (p Principal) CanSeeTenant(tenantID uint) bool {
	if p.IsAdmin() {
		return true
	}
	return p.TenantID != nil && *p.TenantID == tenantID
}

// PrincipalFor builds the principal of u; TenantID is set for linked accounts.
func PrincipalFor(u *models.User) Principal {
	p := Principal{UserID: u.ID, Role: u.Role}
	if u.Tenant != nil {
		id := u.Tenant.ID
		p.TenantID = &id
	}
	return p
}
