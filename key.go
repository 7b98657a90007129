// Copyright (C) 2024 replistore contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package replistore

import "encoding/hex"

// RawIDSize is the size, in bytes, of a raw object id.
const RawIDSize = 32

// RawID is a raw 256-bit object identifier.
type RawID [RawIDSize]byte

// Key identifies an object in the store. A Key is either raw (the caller
// already has the 256-bit id and the group it lives in) or symbolic (a
// name that the Session backend transforms into a raw id on first use).
//
// Key is a value type; two raw keys are Equal iff their raw ids match.
// Since the core never transforms names itself (that's explicitly the
// Session's job), two unresolved symbolic keys are Equal iff their names
// match, and a symbolic key never equals a raw one (see Equal).
type Key struct {
	// Type is an application-defined tag carried alongside the id.
	// It does not participate in equality.
	Type uint32

	// GroupID is set only for raw keys; it names the group the raw id
	// was minted in. Symbolic keys carry no group id of their own —
	// the group list used for an operation comes from the selector.
	GroupID int

	raw     RawID
	hasRaw  bool
	name    string
}

// NewRawKey builds a Key from an already-resolved raw id.
func NewRawKey(id RawID, groupID int, typ uint32) Key {
	return Key{Type: typ, GroupID: groupID, raw: id, hasRaw: true}
}

// NewNamedKey builds a symbolic Key. The Session is responsible for
// transforming it into a raw id before any wire operation.
func NewNamedKey(name string, typ uint32) Key {
	return Key{Type: typ, name: name}
}

// IsRaw reports whether k already carries a raw id.
func (k Key) IsRaw() bool { return k.hasRaw }

// Name returns the symbolic name, or "" if k is raw.
func (k Key) Name() string { return k.name }

// RawID returns the raw id and true if k is raw, else the zero id and false.
func (k Key) RawID() (RawID, bool) { return k.raw, k.hasRaw }

// WithRawID returns a copy of k with its raw id resolved to id. Used by
// the Session adapter boundary once a symbolic name has been transformed.
func (k Key) WithRawID(id RawID) Key {
	k.raw = id
	k.hasRaw = true
	return k
}

// Equal reports whether two keys refer to the same raw id. Two unresolved
// symbolic keys with the same name are considered equal too, since that
// is the only identity information available before resolution.
func (k Key) Equal(other Key) bool {
	if k.hasRaw && other.hasRaw {
		return k.raw == other.raw
	}
	if !k.hasRaw && !other.hasRaw {
		return k.name == other.name
	}
	return false
}

// String returns a human-readable form of the key: the symbolic name if
// present, else the 40-hex-character id (see IDStr).
func (k Key) String() string {
	if !k.hasRaw {
		return k.name
	}
	return hex.EncodeToString(k.raw[:20])
}

// IDStr returns the 40-hex-character debug representation of a raw key's
// id, matching the wire-level 20-byte id convention used for logging.
func (k Key) IDStr() string {
	if !k.hasRaw {
		return ""
	}
	return hex.EncodeToString(k.raw[:20])
}
