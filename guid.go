package hwbits

import (
	"github.com/google/uuid"
)

// GUID holds the 16 identifier bytes as stored in the source. The first three
// groups are little-endian on the wire (UEFI / Microsoft layout); String
// renders the canonical form.
type GUID [16]byte

// UUID converts the stored bytes into the canonical big-endian UUID.
func (g GUID) UUID() uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = g[3], g[2], g[1], g[0]
	u[4], u[5] = g[5], g[4]
	u[6], u[7] = g[7], g[6]
	copy(u[8:], g[8:])
	return u
}

func (g GUID) String() string { return g.UUID().String() }

// IsZero reports whether every byte is zero.
func (g GUID) IsZero() bool { return g == GUID{} }

// MarshalText renders the canonical string form.
func (g GUID) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

// ParseGUID parses the canonical string form into stored byte order.
func ParseGUID(s string) (GUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, err
	}
	return GUIDFromUUID(u), nil
}

// MustParseGUID is like ParseGUID but panics on error. Intended for
// package-level tables of well-known identifiers.
func MustParseGUID(s string) GUID {
	g, err := ParseGUID(s)
	if err != nil {
		panic(err)
	}
	return g
}

// GUIDFromUUID converts a canonical UUID into stored byte order.
func GUIDFromUUID(u uuid.UUID) GUID {
	var g GUID
	g[0], g[1], g[2], g[3] = u[3], u[2], u[1], u[0]
	g[4], g[5] = u[5], u[4]
	g[6], g[7] = u[7], u[6]
	copy(g[8:], u[8:])
	return g
}
