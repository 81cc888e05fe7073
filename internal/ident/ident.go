// Package ident implements the identifier used for users and tasks: a ULID
// stored as 16 big-endian bytes and exchanged as its 26-character text form.
package ident

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// BinaryLen is the length of the stored form.
const BinaryLen = 16

var (
	// ErrBinaryLength is returned when decoding binary input of the wrong size.
	ErrBinaryLength = errors.New("ident: binary id must be 16 bytes")
	// ErrInvalidText is returned when the text form cannot be parsed.
	ErrInvalidText = errors.New("ident: invalid id text")
)

// ID is a ULID.
type ID ulid.ULID

// Nil is the zero ID.
var Nil ID

// New returns a fresh time-sortable ID.
func New() ID {
	return ID(ulid.Make())
}

// FromBytes decodes the 16-byte binary form.
func FromBytes(b []byte) (ID, error) {
	if len(b) != BinaryLen {
		return Nil, fmt.Errorf("%w: got %d", ErrBinaryLength, len(b))
	}
	var id ID
	copy(id[:], b)
	return id, nil
}

// Parse decodes the 26-character canonical text form.
func Parse(s string) (ID, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return Nil, fmt.Errorf("%w: %v", ErrInvalidText, err)
	}
	return ID(u), nil
}

// MustParse is Parse for constants in tests and fixtures.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Bytes returns a copy of the binary form.
func (id ID) Bytes() []byte {
	b := make([]byte, BinaryLen)
	copy(b, id[:])
	return b
}

func (id ID) String() string {
	return ulid.ULID(id).String()
}

// IsNil reports whether id is the zero value.
func (id ID) IsNil() bool {
	return id == Nil
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return ulid.ULID(id).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Scan implements sql.Scanner. Binary values must be exactly 16 bytes; text
// values are accepted for drivers that hand back strings.
func (id *ID) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		parsed, err := FromBytes(v)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	case string:
		if len(v) == BinaryLen {
			return id.Scan([]byte(v))
		}
		return id.UnmarshalText([]byte(v))
	case nil:
		return errors.New("ident: cannot scan NULL into ID")
	default:
		return fmt.Errorf("ident: cannot scan %T into ID", src)
	}
}

// Value implements driver.Valuer using the binary form.
func (id ID) Value() (driver.Value, error) {
	return id.Bytes(), nil
}

// GormDataType implements schema.GormDataTypeInterface.
func (ID) GormDataType() string {
	return string(schema.Bytes)
}

// GormDBDataType picks the fixed-width binary column type of each dialect.
func (ID) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "binary(16)"
	case "postgres":
		return "bytea"
	default:
		return "blob"
	}
}
