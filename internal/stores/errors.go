package stores

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound       = gorm.ErrRecordNotFound
	ErrDuplicate      = errors.New("duplicate record")
	ErrInvalidRefresh = errors.New("invalid refresh token")

	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomRetired    = errors.New("room is not active")
	ErrRoomFull       = errors.New("room is fully occupied")
	ErrRoomOccupied   = errors.New("room has active tenants")
	ErrTenantInactive = errors.New("tenant is already checked out")
	ErrStaleStatus    = errors.New("record is no longer in the expected status")
)

// translate maps unique-index violations onto ErrDuplicate. The connection is
// opened with TranslateError, the string checks cover drivers that bypass it.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value") {
		return ErrDuplicate
	}
	return err
}

func paginate(q *gorm.DB, offset, limit int) *gorm.DB {
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}
