package store

import (
	"database/sql"
	"time"
)

// dbTimeLayout is fixed width so stored stamps sort lexically in time order.
const dbTimeLayout = "2006-01-02T15:04:05.000000000Z"

func dbFormatTime(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}

func dbNullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return dbFormatTime(*t)
}

func dbParseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dbTimeLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

func dbParseNullTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	t, err := dbParseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
