package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"pg-manager/internal/access"
	"pg-manager/internal/mocks"
	"pg-manager/internal/models"
	"pg-manager/internal/services"
	"pg-manager/internal/stores"
	"pg-manager/internal/testdb"
)

type stubHasher struct{}

func (stubHasher) Hash(p []byte) ([]byte, error) { return []byte("hashed-" + string(p)), nil }
func (stubHasher) Compare(_, _ []byte) error     { return nil }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// memCache is a ReportCache backed by a map.
type memCache struct {
	mu          sync.Mutex
	data        map[string]interface{}
	gens        map[string]int64
	invalidated int
	dropped     int
}

func (m *memCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return false, nil
	}
	*dest.(*services.OccupancyReport) = *v.(*services.OccupancyReport)
	return true, nil
}

func (m *memCache) Generation(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[key], nil
}

func (m *memCache) SetAt(_ context.Context, key string, gen int64, value interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gens[key] != gen {
		m.dropped++
		return false, nil
	}
	if m.data == nil {
		m.data = map[string]interface{}{}
	}
	m.data[key] = value
	return true, nil
}

func (m *memCache) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gens == nil {
		m.gens = map[string]int64{}
	}
	for _, k := range keys {
		delete(m.data, k)
		m.gens[k]++
	}
	m.invalidated++
	return nil
}

type env struct {
	db     *gorm.DB
	clock  *clock
	events *mocks.Publisher
	cache  *memCache

	rooms         *services.RoomService
	tenants       *services.TenantService
	payments      *services.PaymentService
	maintenance   *services.MaintenanceService
	reports       *services.ReportService
	notifications *services.NotificationService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testdb.New(t)

	e := &env{
		db:     db,
		clock:  &clock{now: time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)},
		events: &mocks.Publisher{},
		cache:  &memCache{},
	}
	base := services.Base{Events: e.events, Cache: e.cache, Now: e.clock.Now}

	roomStore := &stores.GormRoomStore{DB: db}
	tenantStore := &stores.GormTenantStore{DB: db}
	paymentStore := &stores.GormPaymentStore{DB: db}
	requestStore := &stores.GormMaintenanceStore{DB: db}

	e.rooms = services.NewRoomService(base, roomStore)
	e.tenants = services.NewTenantService(base, tenantStore, stubHasher{})
	e.payments = services.NewPaymentService(base, paymentStore)
	e.maintenance = services.NewMaintenanceService(base, requestStore, tenantStore)
	e.reports = services.NewReportService(base, roomStore, tenantStore, paymentStore, requestStore)
	e.notifications = services.NewNotificationService(base, tenantStore, paymentStore, requestStore)
	return e
}

func (e *env) room(t *testing.T, number string, capacity int) *models.Room {
	t.Helper()
	typ := models.RoomSingle
	switch capacity {
	case 2:
		typ = models.RoomDouble
	case 3:
		typ = models.RoomTriple
	}
	r, err := e.rooms.Create(context.Background(), services.RoomInput{
		RoomNumber: number, Floor: 1, RoomType: typ, Capacity: capacity, MonthlyRent: 5000,
	})
	require.NoError(t, err)
	return r
}

func (e *env) tenant(t *testing.T, email string, roomID *uint) *models.Tenant {
	t.Helper()
	reg, err := e.tenants.Register(context.Background(), services.TenantInput{
		Email: email, FullName: "Tenant " + email, RoomID: roomID,
	})
	require.NoError(t, err)
	return reg.Tenant
}

func tenantPrincipal(t *models.Tenant) access.Principal {
	id := t.ID
	return access.Principal{UserID: t.UserID, Role: models.RoleTenant, TenantID: &id}
}

var admin = access.Principal{UserID: 1, Role: models.RoleAdmin}

func date(t *testing.T, s string) *models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return &d
}

func ptr[T any](v T) *T { return &v }
