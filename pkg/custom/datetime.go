package custom

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

var quoted = regexp.MustCompile(`"(.*)"`)

// Datetime represents a datetime. It is always stored and rendered in UTC.
type Datetime time.Time

// NewDatetime creates a Datetime from t.
func NewDatetime(t time.Time) Datetime {
	return Datetime(t.UTC())
}

// Time returns the underlying time.
func (d Datetime) Time() time.Time {
	return time.Time(d)
}

// IsZero reports whether the datetime is unset.
func (d Datetime) IsZero() bool {
	return time.Time(d).IsZero()
}

// MarshalJSON implements the json.Marshaler interface.
func (d Datetime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf(`%q`, time.Time(d).UTC().Format(time.RFC3339))), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *Datetime) UnmarshalJSON(text []byte) error {
	if string(text) == "null" {
		*d = Datetime{}
		return nil
	}

	// Remove " from text if present (e.g. "2020-01-01T00:00:00Z" -> 2020-01-01T00:00:00Z)
	text = quoted.ReplaceAll(text, []byte("$1"))

	t, err := time.Parse(time.RFC3339, string(text))
	if err != nil {
		return err
	}
	*d = Datetime(t.UTC())
	return nil
}

// MarshalBSONValue stores the datetime as a native BSON datetime.
func (d Datetime) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if d.IsZero() {
		return bson.TypeNull, nil, nil
	}
	return bson.MarshalValue(time.Time(d).UTC())
}

// UnmarshalBSONValue reads a native BSON datetime. RFC3339 strings written by older versions are also accepted.
func (d *Datetime) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}

	switch t {
	case bson.TypeNull, bson.TypeUndefined:
		*d = Datetime{}
		return nil
	case bson.TypeDateTime:
		tm, ok := raw.TimeOK()
		if !ok {
			return fmt.Errorf("invalid bson datetime")
		}
		*d = Datetime(tm.UTC())
		return nil
	case bson.TypeString:
		s, ok := raw.StringValueOK()
		if !ok {
			return fmt.Errorf("invalid bson string")
		}
		tm, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid datetime: %s", s)
		}
		*d = Datetime(tm.UTC())
		return nil
	default:
		return fmt.Errorf("invalid bson type %s for datetime", t)
	}
}

// Scan implements the sql.Scanner interface.
func (d *Datetime) Scan(src any) error {
	if src == nil {
		*d = Datetime{}
		return nil
	}

	t, ok := src.(time.Time)
	if !ok {
		return fmt.Errorf("invalid scan, type %T not supported for %T", src, d)
	}
	*d = Datetime(t.UTC())
	return nil
}

// Value implements the driver.Valuer interface.
func (d Datetime) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return time.Time(d).UTC(), nil
}

// String implements the fmt.Stringer interface.
func (d Datetime) String() string {
	return time.Time(d).Format(time.RFC3339)
}
