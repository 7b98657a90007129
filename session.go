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

import "context"

// IOFlag is a bit set controlling how a single wire call behaves.
type IOFlag uint32

const (
	// IOFlagPrepare starts a chunked write: the first call of a
	// multi-part upload.
	IOFlagPrepare IOFlag = 1 << iota
	// IOFlagCommit finishes a chunked write: the last call of a
	// multi-part upload.
	IOFlagCommit
	// IOFlagPlainWrite issues a single, non-chunked write regardless
	// of the configured chunk size.
	IOFlagPlainWrite
	// IOFlagNoData, on a range read, asks the backend to return only
	// a count of matching records instead of their bodies.
	IOFlagNoData
)

// disablesChunking reports whether f forces the one-shot / single-call
// write path instead of the chunked path (spec §4.3 mode selection).
func (f IOFlag) disablesChunking() bool {
	return f&(IOFlagPrepare|IOFlagCommit|IOFlagPlainWrite) != 0
}

// CFlag is a bit set of backend-specific "command flags" passed through
// to the storage session verbatim; the core never interprets them beyond
// saving/restoring the caller's value around the metadata-finalize call
// (spec §4.3).
type CFlag uint32

// GroupReply is one group's outcome for a write/read/lookup/remove call
// against a set of groups.
type GroupReply struct {
	GroupID int
	Err     error
	// Lookup is populated for successful write/lookup replies.
	Lookup LookupResult
	// Body is populated for successful read replies.
	Body []byte
}

// LookupResult is one successful write/lookup's location in one group
// (spec §3).
type LookupResult struct {
	GroupID       int
	Host          string
	Port          int
	AddressFamily int
	StoragePath   string

	// HasBlob is set when the backend uses a packed blob format and
	// the triple below is meaningful.
	HasBlob    bool
	BlobFile   string
	BlobOffset int64
	BlobSize   int64
}

// Remote is a node address as returned by lookup_addr.
type Remote struct {
	Host          string
	Port          int
	AddressFamily int
}

// StatEntry is one node's stats as returned by stat_log (spec §6).
type StatEntry struct {
	Host          string
	LoadAverage   float64 // already divided by 100
	MemoryTotal   uint64
	MemoryFree    uint64
	StorageSizeMB uint64
	AvailableMB   uint64
	FileCount     uint64
	FilesystemID  uint64
}

// Session is the thin contract the core consumes over the real storage
// transport. It is the one external collaborator spec.md §1 calls out as
// out of scope: everything about node connection, routing, raw-id
// transformation, wire encoding, and address lookup lives on the other
// side of this interface. Implementations must be safe for concurrent
// use; per-call settings (groups, cflags, ioflags) must not leak between
// concurrent calls — pass them as call parameters, never as mutable
// fields mutated in place on a shared session (spec §5).
type Session interface {
	// LiveStates returns the number of transport states the session
	// currently considers live (spec §3's die_limit check).
	LiveStates(ctx context.Context) int

	// Resolve transforms a symbolic key into a raw id. It is a no-op
	// for keys that are already raw.
	Resolve(ctx context.Context, key Key) (Key, error)

	// WriteData issues a single, complete write of data[offset:offset+size]
	// to every group in groups, honoring cflags/ioflags, and returns one
	// GroupReply per group attempted.
	WriteData(ctx context.Context, key Key, data []byte, offset, size uint64, cflags CFlag, ioflags IOFlag, groups []int) []GroupReply

	// WritePrepare issues the first chunk of a chunked upload, reserving
	// total bytes in total.
	WritePrepare(ctx context.Context, key Key, chunk []byte, total uint64, cflags CFlag, groups []int) []GroupReply

	// WritePlain issues an intermediate chunk of a chunked upload at
	// the given offset.
	WritePlain(ctx context.Context, key Key, chunk []byte, offset uint64, cflags CFlag, groups []int) []GroupReply

	// WriteCommit issues the final chunk of a chunked upload at the
	// given offset and returns the authoritative result vector.
	WriteCommit(ctx context.Context, key Key, chunk []byte, offset uint64, cflags CFlag, groups []int) []GroupReply

	// WriteMetadata finalizes an object's metadata after a successful
	// body upload (spec §4.3's "metadata finalize").
	WriteMetadata(ctx context.Context, key Key, cflags CFlag, groups []int) []GroupReply

	// Read issues an ordinary read.
	Read(ctx context.Context, key Key, offset, size uint64, cflags CFlag, ioflags IOFlag, groups []int) []GroupReply

	// ReadLatest issues a read against the replica the backend judges
	// to hold the newest version in each group attempted.
	ReadLatest(ctx context.Context, key Key, offset, size uint64, cflags CFlag, ioflags IOFlag, groups []int) []GroupReply

	// Lookup issues a lookup against a single group.
	Lookup(ctx context.Context, key Key, group int) GroupReply

	// Remove issues a best-effort remove against groups.
	Remove(ctx context.Context, key Key, groups []int) []GroupReply

	// RangeGet reads the range [from, to) and returns either data bodies
	// or, if ioflags has IOFlagNoData set, a count.
	RangeGet(ctx context.Context, from, to Key, limitStart, limitNum int, cflags CFlag, ioflags IOFlag, groups []int, referenceKey *Key) (bodies []string, count int, isCount bool, err error)

	// LookupAddr returns the node addresses holding key in groups.
	LookupAddr(ctx context.Context, key Key, groups []int) ([]Remote, error)

	// ExecScript runs script against key's object and returns the
	// backend's textual result.
	ExecScript(ctx context.Context, key Key, script string, data []byte, groups []int) (string, error)

	// Stat returns per-node stats.
	Stat(ctx context.Context) ([]StatEntry, error)

	// UpdateIndexes, FindIndexes, and CheckIndexes are forwarded
	// verbatim from the Client facade (spec §1: "secondary index
	// maintenance ... forwarded verbatim to the session").
	UpdateIndexes(ctx context.Context, key Key, indexes []string, data [][]byte) error
	FindIndexes(ctx context.Context, indexes []string) ([]Key, error)
	CheckIndexes(ctx context.Context, key Key, indexes []string) ([]bool, error)

	// BulkRead reads many keys from the groups in one round trip.
	BulkRead(ctx context.Context, keys []Key, groups []int) (map[RawID][]byte, error)

	// BulkWrite writes many (key, data) pairs to the groups in one
	// round trip, returning each key's per-group replies.
	BulkWrite(ctx context.Context, keys []Key, data [][]byte, cflags CFlag, groups []int) (map[RawID][]GroupReply, error)

	// BulkRemove is the batch counterpart used by bulk-write
	// compensation.
	BulkRemove(ctx context.Context, keys []Key, groups []int)
}
