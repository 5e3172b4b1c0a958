package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"pg-manager/internal/apperr"
	"pg-manager/internal/events"
	"pg-manager/internal/stores"
)

// ReportCache holds derived report snapshots. Implementations must treat a
// disabled cache as a permanent miss.
//
// Every Invalidate bumps the key's generation. A snapshot computed after
// reading generation g is written with SetAt(g) and dropped when the
// generation moved on in the meantime.
type ReportCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Generation(ctx context.Context, key string) (int64, error)
	SetAt(ctx context.Context, key string, gen int64, value interface{}) (bool, error)
	Invalidate(ctx context.Context, keys ...string) error
}

const OccupancyCacheKey = "occupancy"

// Base carries the collaborators every service shares. All fields are
// optional.
type Base struct {
	Events events.Publisher
	Cache  ReportCache
	Logger *logrus.Logger
	Now    func() time.Time
}

func (b Base) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b Base) log() *logrus.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return logrus.StandardLogger()
}

// emit publishes best-effort; failures are logged and dropped.
func (b Base) emit(ctx context.Context, subject string, data interface{}) {
	if b.Events == nil {
		return
	}
	if err := b.Events.Publish(ctx, subject, data); err != nil {
		b.log().WithError(err).WithField("subject", subject).Warn("Failed to publish event")
	}
}

func (b Base) invalidateOccupancy(ctx context.Context) {
	if b.Cache == nil {
		return
	}
	if err := b.Cache.Invalidate(ctx, OccupancyCacheKey); err != nil {
		b.log().WithError(err).Warn("Failed to invalidate occupancy cache")
	}
}

// storeErr converts store sentinels into client-facing errors. Errors that
// already carry a kind pass through unchanged.
func storeErr(err error, resource string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, stores.ErrNotFound):
		return apperr.NotFound(resource)
	case errors.Is(err, stores.ErrRoomNotFound):
		return apperr.NotFound("room")
	case errors.Is(err, stores.ErrRoomRetired):
		return apperr.Validation("room is not active")
	case errors.Is(err, stores.ErrRoomFull):
		return apperr.Conflict("room is fully occupied")
	case errors.Is(err, stores.ErrRoomOccupied):
		return apperr.Conflict("cannot delete a room with active tenants")
	case errors.Is(err, stores.ErrTenantInactive):
		return apperr.InvalidState("tenant is already checked out")
	case errors.Is(err, stores.ErrStaleStatus):
		return apperr.InvalidState("%s has already been reviewed", resource)
	case errors.Is(err, stores.ErrDuplicate):
		return apperr.Conflict("%s already exists", resource)
	}
	return apperr.Internal(err, "%s operation failed", resource)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Page is the skip/limit window of a listing.
type Page struct {
	Offset int
	Limit  int
}

func (p Page) apply(n int) (int, int) {
	start := p.Offset
	if start > n {
		start = n
	}
	end := n
	if p.Limit > 0 && start+p.Limit < n {
		end = start + p.Limit
	}
	return start, end
}
