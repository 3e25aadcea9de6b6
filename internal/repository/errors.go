// Package repository implements the MySQL storage behind the
// reservation engine, the call archive and the quality store.  The
// sentinel values below let handlers tell missing rows apart from
// storage failures.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/restaurant-phone-agent/internal/booking"
	"github.com/iliyamo/restaurant-phone-agent/internal/quality"
)

// ErrTableNotFound is returned when a restaurant table id does not
// exist.  Handlers should translate this into an HTTP 404 response.
var ErrTableNotFound = errors.New("table not found")

// ErrCallNotFound is returned when no metrics were stored for a call.
var ErrCallNotFound = quality.ErrCallNotFound

// ErrQualityNotFound is returned when a call has not been scored yet.
var ErrQualityNotFound = errors.New("call quality not found")

// MySQL error numbers that mean a concurrent writer got the slot first.
const (
	errDuplicateEntry  = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// mapWriteConflict turns duplicate-key and lock conflicts into
// booking.ErrSlotTaken so the engine can retry the allocation.  Other
// errors pass through unchanged.
func mapWriteConflict(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDuplicateEntry, errLockWaitTimeout, errDeadlock:
			return fmt.Errorf("%w: %v", booking.ErrSlotTaken, err)
		}
	}
	return err
}
