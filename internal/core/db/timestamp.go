package db

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// timestampLayout is the TEXT encoding used for SQLite timestamp columns.
// The schema CHECK constraints rely on this exact shape.
const timestampLayout = "2006-01-02T15:04:05Z"

// Timestamp scans a timestamp column stored either natively (PostgreSQL)
// or as RFC 3339 text (SQLite).
type Timestamp struct {
	time.Time
}

// Scan implements sql.Scanner.
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", src)
	}
}

// Value implements driver.Valuer using the text encoding.
func (t Timestamp) Value() (driver.Value, error) {
	return t.UTC().Format(timestampLayout), nil
}

func (t *Timestamp) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	t.Time = parsed.UTC()
	return nil
}

// timestampArg converts ts into the argument form the driver stores.
// SQLite columns are TEXT; PostgreSQL columns are TIMESTAMP WITHOUT TIME ZONE.
func timestampArg(driverName string, ts time.Time) any {
	ts = ts.UTC().Truncate(time.Second)
	if driverName == "sqlite3" {
		return ts.Format(timestampLayout)
	}
	return ts
}
