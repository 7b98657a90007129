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

import (
	"errors"
	"fmt"
)

// Sentinel errors for the taxonomy in spec §7. Use errors.Is against
// these. Errors raised for a specific key wrap one of these and carry
// that key's string form; ErrTooFewStates and ErrNoGroups are returned
// bare, and ErrMetabaseUnavailable and the bulk calls' session-level
// ErrTransport carry the cause but no key.
var (
	// ErrTooFewStates is returned when the session reports fewer live
	// transport states than die_limit. Never retried.
	ErrTooFewStates = errors.New("replistore: too few live states")
	// ErrNoGroups is returned when the group selector produced an
	// empty candidate list.
	ErrNoGroups = errors.New("replistore: no groups")
	// ErrNotFound is returned when every candidate group failed to
	// return the key on read/lookup.
	ErrNotFound = errors.New("replistore: not found")
	// ErrWriteRejected is returned when the acceptance predicate was
	// not satisfied after a write; compensation has already run.
	ErrWriteRejected = errors.New("replistore: write rejected")
	// ErrBulkWriteRejected is returned when any key in a bulk write
	// failed acceptance; the whole batch has already been compensated.
	ErrBulkWriteRejected = errors.New("replistore: bulk write rejected")
	// ErrCorrupt is returned when embedded TLV framing is inconsistent.
	ErrCorrupt = errors.New("replistore: corrupt embedded frame")
	// ErrMetabaseUnavailable is returned when the metabalancer
	// transport failed and usage mode is NORMAL or MANDATORY.
	ErrMetabaseUnavailable = errors.New("replistore: metabalancer unavailable")
	// ErrTransport wraps an underlying session/RPC error.
	ErrTransport = errors.New("replistore: transport error")
)

// opError wraps a sentinel with the key's string form, per spec §7:
// "errors surface to the caller with the key's string form in the
// message."
type opError struct {
	sentinel error
	key      string
	cause    error
}

func (e *opError) Error() string {
	if e.key == "" {
		if e.cause != nil {
			return fmt.Sprintf("%s: %s", e.sentinel, e.cause)
		}
		return e.sentinel.Error()
	}
	if e.cause != nil {
		return fmt.Sprintf("%s (key %s): %s", e.sentinel, e.key, e.cause)
	}
	return fmt.Sprintf("%s (key %s)", e.sentinel, e.key)
}

func (e *opError) Unwrap() error { return e.sentinel }

func keyErr(sentinel error, key Key) error {
	return &opError{sentinel: sentinel, key: key.String()}
}

func keyErrf(sentinel error, key Key, cause error) error {
	return &opError{sentinel: sentinel, key: key.String(), cause: cause}
}

func wrapErr(sentinel, cause error) error {
	return &opError{sentinel: sentinel, cause: cause}
}
