package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ID is the canonical identifier shared by users, products and cart items.
// It wraps a MongoDB ObjectID so the same value can be stored as raw bytes in
// the document store and as lowercase hex text in SQLite.
type ID struct {
	oid primitive.ObjectID
}

// NewID returns a freshly generated identifier.
func NewID() ID {
	return ID{oid: primitive.NewObjectID()}
}

// ParseID parses the 24 character hex form of an identifier. Upper and lower
// case input parse to the same value.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil || oid.IsZero() {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID{oid: oid}, nil
}

// IDFromObjectID adapts a driver ObjectID.
func IDFromObjectID(oid primitive.ObjectID) ID {
	return ID{oid: oid}
}

func (id ID) ObjectID() primitive.ObjectID { return id.oid }

func (id ID) IsZero() bool { return id.oid.IsZero() }

// Equal compares canonical bytes, never the textual representation.
func (id ID) Equal(other ID) bool { return id.oid == other.oid }

func (id ID) String() string {
	if id.IsZero() {
		return ""
	}
	return id.oid.Hex()
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	if s == "" {
		*id = ID{}
		return nil
	}
	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value stores the id as hex text.
func (id ID) Value() (driver.Value, error) {
	if id.IsZero() {
		return nil, nil
	}
	return id.oid.Hex(), nil
}

func (id *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*id = ID{}
		return nil
	case string:
		parsed, err := ParseID(v)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	case []byte:
		return id.Scan(string(v))
	default:
		return fmt.Errorf("scan id: unsupported type %T", src)
	}
}
