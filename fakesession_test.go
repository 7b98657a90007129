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
	"context"
	"errors"
	"fmt"
	"sync"
)

// fakeSession is a deterministic double for Session, playing the role of
// the teacher's tenant/stub.go and tenant/bench_stub.go stand-ins for the
// one external collaborator the core cannot otherwise exercise in tests.
//
// Per-group behavior is configured up front via downGroups;
// fakeSession never reorders or drops calls on its own, so tests can
// assert exact call sequences where that matters (the chunked-write
// prepare/plain/commit sequence).
type fakeSession struct {
	mu sync.Mutex

	live int

	// downGroups fail every call unconditionally.
	downGroups map[int]bool

	// calls records every method invocation's name and group set for
	// assertions about call sequencing.
	calls []fakeCall

	resolveNames map[string]RawID
	nextRaw      byte

	bulkData map[RawID][]byte
}

type fakeCall struct {
	method string
	groups []int
}

func newFakeSession(liveStates int) *fakeSession {
	return &fakeSession{
		live:         liveStates,
		downGroups:   map[int]bool{},
		resolveNames: map[string]RawID{},
		bulkData:     map[RawID][]byte{},
	}
}

func (f *fakeSession) setDown(groups ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range groups {
		f.downGroups[g] = true
	}
}

func (f *fakeSession) record(method string, groups []int) {
	f.calls = append(f.calls, fakeCall{method: method, groups: append([]int(nil), groups...)})
}

func (f *fakeSession) LiveStates(ctx context.Context) int {
	return f.live
}

func (f *fakeSession) Resolve(ctx context.Context, key Key) (Key, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if key.IsRaw() {
		return key, nil
	}
	if id, ok := f.resolveNames[key.Name()]; ok {
		return key.WithRawID(id), nil
	}
	var id RawID
	f.nextRaw++
	id[0] = f.nextRaw
	f.resolveNames[key.Name()] = id
	return key.WithRawID(id), nil
}

func (f *fakeSession) replies(groups []int, method string) []GroupReply {
	f.mu.Lock()
	down := make(map[int]bool, len(f.downGroups))
	for g, v := range f.downGroups {
		down[g] = v
	}
	f.record(method, groups)
	f.mu.Unlock()

	out := make([]GroupReply, 0, len(groups))
	for _, g := range groups {
		if down[g] {
			out = append(out, GroupReply{GroupID: g, Err: fmt.Errorf("group %d down", g)})
			continue
		}
		out = append(out, GroupReply{
			GroupID: g,
			Lookup: LookupResult{
				GroupID: g,
				Host:    fmt.Sprintf("node-%d", g),
				HasBlob: false,
			},
		})
	}
	return out
}

func (f *fakeSession) WriteData(ctx context.Context, key Key, data []byte, offset, size uint64, cflags CFlag, ioflags IOFlag, groups []int) []GroupReply {
	return f.replies(groups, "WriteData")
}

func (f *fakeSession) WritePrepare(ctx context.Context, key Key, chunk []byte, total uint64, cflags CFlag, groups []int) []GroupReply {
	return f.replies(groups, "WritePrepare")
}

func (f *fakeSession) WritePlain(ctx context.Context, key Key, chunk []byte, offset uint64, cflags CFlag, groups []int) []GroupReply {
	return f.replies(groups, "WritePlain")
}

func (f *fakeSession) WriteCommit(ctx context.Context, key Key, chunk []byte, offset uint64, cflags CFlag, groups []int) []GroupReply {
	return f.replies(groups, "WriteCommit")
}

func (f *fakeSession) WriteMetadata(ctx context.Context, key Key, cflags CFlag, groups []int) []GroupReply {
	return f.replies(groups, "WriteMetadata")
}

func (f *fakeSession) Read(ctx context.Context, key Key, offset, size uint64, cflags CFlag, ioflags IOFlag, groups []int) []GroupReply {
	replies := f.replies(groups, "Read")
	for i := range replies {
		if replies[i].Err == nil {
			replies[i].Body = []byte("payload")
		}
	}
	return replies
}

func (f *fakeSession) ReadLatest(ctx context.Context, key Key, offset, size uint64, cflags CFlag, ioflags IOFlag, groups []int) []GroupReply {
	return f.Read(ctx, key, offset, size, cflags, ioflags, groups)
}

func (f *fakeSession) Lookup(ctx context.Context, key Key, group int) GroupReply {
	replies := f.replies([]int{group}, "Lookup")
	return replies[0]
}

func (f *fakeSession) Remove(ctx context.Context, key Key, groups []int) []GroupReply {
	return f.replies(groups, "Remove")
}

func (f *fakeSession) RangeGet(ctx context.Context, from, to Key, limitStart, limitNum int, cflags CFlag, ioflags IOFlag, groups []int, referenceKey *Key) ([]string, int, bool, error) {
	f.mu.Lock()
	f.record("RangeGet", groups)
	f.mu.Unlock()
	if ioflags&IOFlagNoData != 0 {
		return nil, 3, true, nil
	}
	return []string{"a", "b", "c"}, 0, false, nil
}

func (f *fakeSession) LookupAddr(ctx context.Context, key Key, groups []int) ([]Remote, error) {
	out := make([]Remote, 0, len(groups))
	for _, g := range groups {
		out = append(out, Remote{Host: fmt.Sprintf("node-%d", g), Port: 1024 + g})
	}
	return out, nil
}

func (f *fakeSession) ExecScript(ctx context.Context, key Key, script string, data []byte, groups []int) (string, error) {
	return "ok", nil
}

func (f *fakeSession) Stat(ctx context.Context) ([]StatEntry, error) {
	return []StatEntry{{Host: "node-0", LoadAverage: 0.5}}, nil
}

func (f *fakeSession) UpdateIndexes(ctx context.Context, key Key, indexes []string, data [][]byte) error {
	return nil
}

func (f *fakeSession) FindIndexes(ctx context.Context, indexes []string) ([]Key, error) {
	return nil, nil
}

func (f *fakeSession) CheckIndexes(ctx context.Context, key Key, indexes []string) ([]bool, error) {
	out := make([]bool, len(indexes))
	return out, nil
}

func (f *fakeSession) BulkRead(ctx context.Context, keys []Key, groups []int) (map[RawID][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[RawID][]byte, len(keys))
	for _, k := range keys {
		id, ok := k.RawID()
		if !ok {
			continue
		}
		if body, ok := f.bulkData[id]; ok {
			out[id] = body
		}
	}
	return out, nil
}

func (f *fakeSession) BulkWrite(ctx context.Context, keys []Key, data [][]byte, cflags CFlag, groups []int) (map[RawID][]GroupReply, error) {
	f.mu.Lock()
	down := make(map[int]bool, len(f.downGroups))
	for g, v := range f.downGroups {
		down[g] = v
	}
	f.mu.Unlock()

	out := make(map[RawID][]GroupReply, len(keys))
	for i, k := range keys {
		id, ok := k.RawID()
		if !ok {
			continue
		}
		f.mu.Lock()
		f.bulkData[id] = data[i]
		f.mu.Unlock()
		replies := make([]GroupReply, 0, len(groups))
		for _, g := range groups {
			if down[g] {
				replies = append(replies, GroupReply{GroupID: g, Err: errors.New("down")})
				continue
			}
			replies = append(replies, GroupReply{GroupID: g, Lookup: LookupResult{GroupID: g}})
		}
		out[id] = replies
	}
	return out, nil
}

func (f *fakeSession) BulkRemove(ctx context.Context, keys []Key, groups []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("BulkRemove", groups)
	for _, k := range keys {
		if id, ok := k.RawID(); ok {
			delete(f.bulkData, id)
		}
	}
}

var _ Session = (*fakeSession)(nil)
