package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkplanSequenceCounter holds the last workplan number handed out for
// a grant serial.
//
// The counter is only ever mutated through a single atomic upsert
// statement. Reading the counter and writing it back from application
// code would race under concurrent requests, so there is deliberately
// no such code path.
type WorkplanSequenceCounter struct {
	GrantSerialID      uuid.UUID `gorm:"primaryKey"`
	LastWorkplanNumber uint
	LastUsedAt         time.Time
}

// NextWorkplanNumber atomically increments the counter for the serial
// and returns the new number. The first call for a serial returns 1.
//
// The upsert with RETURNING makes the read-increment-write a single
// statement on both sqlite and postgres, so concurrent callers can
// never observe the same number.
func NextWorkplanNumber(tx *gorm.DB, serialID uuid.UUID) (uint, error) {
	var number uint

	err := tx.Raw(`
		INSERT INTO workplan_sequence_counters (grant_serial_id, last_workplan_number, last_used_at)
		VALUES (?, 1, ?)
		ON CONFLICT (grant_serial_id)
		DO UPDATE SET
			last_workplan_number = workplan_sequence_counters.last_workplan_number + 1,
			last_used_at = excluded.last_used_at
		RETURNING last_workplan_number`,
		serialID, time.Now().In(time.UTC)).Scan(&number).Error
	if err != nil {
		return 0, err
	}

	return number, nil
}

// ReleaseWorkplanNumber gives a number back to the serial's counter if
// and only if it is the current maximum. A workplan removed from the
// middle of a serial leaves a permanent gap instead, other workplans
// are never renumbered.
func ReleaseWorkplanNumber(tx *gorm.DB, serialID uuid.UUID, number uint) error {
	if number == 0 {
		return nil
	}

	return tx.Model(&WorkplanSequenceCounter{}).
		Where("grant_serial_id = ? AND last_workplan_number = ?", serialID, number).
		Updates(map[string]interface{}{
			"last_workplan_number": gorm.Expr("last_workplan_number - 1"),
			"last_used_at":         time.Now().In(time.UTC),
		}).Error
}
