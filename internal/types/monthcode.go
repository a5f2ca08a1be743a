// Package types implements special types for the F-System backend.
package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// MonthCode is the four digit month-and-year code used in grant serials,
// e.g. "0825" for August 2025. The first two digits are the month, the
// last two the year.
type MonthCode string

var monthCodePattern = regexp.MustCompile(`^(0[1-9]|1[0-2])[0-9]{2}$`)

var ErrInvalidMonthCode = errors.New("the month code must be a four digit MMYY string")

// ParseMonthCode validates a MMYY string and returns the MonthCode it
// represents.
func ParseMonthCode(s string) (MonthCode, error) {
	if !monthCodePattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonthCode, s)
	}

	return MonthCode(s), nil
}

// MonthCodeOf returns the MonthCode for the month a time occurs in.
func MonthCodeOf(t time.Time) MonthCode {
	return MonthCode(fmt.Sprintf("%02d%02d", int(t.Month()), t.Year()%100))
}

// String returns the code itself.
func (m MonthCode) String() string {
	return string(m)
}

// Valid reports whether the code is a well-formed MMYY string.
func (m MonthCode) Valid() bool {
	return monthCodePattern.MatchString(string(m))
}

// Month returns the month encoded in the code.
func (m MonthCode) Month() time.Month {
	if !m.Valid() {
		return 0
	}

	return time.Month((m[0]-'0')*10 + (m[1] - '0'))
}

// Year returns the four digit year encoded in the code. All codes are
// interpreted as years in the 2000s.
func (m MonthCode) Year() int {
	if !m.Valid() {
		return 0
	}

	return 2000 + int(m[2]-'0')*10 + int(m[3]-'0')
}

// Scan reads the value from the database.
func (m *MonthCode) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*m = MonthCode(v)
	case []byte:
		*m = MonthCode(v)
	default:
		return fmt.Errorf("cannot scan %T into MonthCode", value)
	}

	return nil
}

// Value returns the value for the SQL driver to write to the database.
func (m MonthCode) Value() (driver.Value, error) {
	return string(m), nil
}

// GormDataType defines the data type used by gorm for the type.
func (MonthCode) GormDataType() string {
	return "varchar(4)"
}

// IsZero reports if the code is empty.
func (m MonthCode) IsZero() bool {
	return m == ""
}
