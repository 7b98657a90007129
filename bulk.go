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
	"fmt"
)

// BulkRead reads many keys from one logical replica-set in a single
// round trip (spec §4.5): lgroups is selected from the first key (the
// caller is assumed to target a single group set), every key is
// resolved to a raw id, and results are fanned back into a map keyed by
// the caller's original Key via a raw_id -> original_key side table.
// Keys missing from the session's response are simply absent from the
// output map.
func (c *Client) BulkRead(ctx context.Context, keys []Key, groups []int) (map[Key]DataContainer, error) {
	if len(keys) == 0 {
		return map[Key]DataContainer{}, nil
	}
	if err := c.checkLiveStates(ctx); err != nil {
		return nil, err
	}
	lgroups, err := c.selectGroups(groups, 0)
	if err != nil {
		return nil, err
	}

	resolved := make([]Key, len(keys))
	byRawID := make(map[RawID]Key, len(keys))
	for i, k := range keys {
		rk, err := c.session.Resolve(ctx, k)
		if err != nil {
			return nil, keyErrf(ErrTransport, k, err)
		}
		resolved[i] = rk
		if id, ok := rk.RawID(); ok {
			byRawID[id] = k
		}
	}

	bodies, err := c.session.BulkRead(ctx, resolved, lgroups)
	if err != nil {
		return nil, wrapErr(ErrTransport, err)
	}

	out := make(map[Key]DataContainer, len(bodies))
	for id, body := range bodies {
		orig, ok := byRawID[id]
		if !ok {
			continue
		}
		out[orig] = UnembeddedContainer(body)
	}
	return out, nil
}

// BulkWrite packs every payload through the data container framer and
// issues a single session bulk write (spec §4.5). The response is
// partitioned by key; each key's per-group success count is checked
// against the acceptance predicate for successMode/successN at
// replication count len(lgroups). If any key fails acceptance, the whole
// batch is compensated (every key removed from the groups where it did
// accept, best effort) and the call fails with ErrBulkWriteRejected;
// otherwise the per-key lookup-result map is returned.
func (c *Client) BulkWrite(ctx context.Context, keys []Key, payloads [][]byte, cflags CFlag, groups []int, successMode SuccessMode, successN int) (map[Key][]LookupResult, error) {
	if len(keys) != len(payloads) {
		return nil, fmt.Errorf("replistore: bulk write: %d keys but %d payloads", len(keys), len(payloads))
	}
	if len(keys) == 0 {
		return map[Key][]LookupResult{}, nil
	}
	if err := c.checkLiveStates(ctx); err != nil {
		return nil, err
	}
	lgroups, err := c.selectGroups(groups, 0)
	if err != nil {
		return nil, err
	}

	resolved := make([]Key, len(keys))
	resolvedByID := make(map[RawID]Key, len(keys))
	byRawID := make(map[RawID]Key, len(keys))
	packed := make([][]byte, len(payloads))
	for i, k := range keys {
		rk, err := c.session.Resolve(ctx, k)
		if err != nil {
			return nil, keyErrf(ErrTransport, k, err)
		}
		resolved[i] = rk
		if id, ok := rk.RawID(); ok {
			byRawID[id] = k
			resolvedByID[id] = rk
		}
		packed[i] = DataContainer{Payload: payloads[i]}.Pack()
	}

	replies, err := c.session.BulkWrite(ctx, resolved, packed, cflags, lgroups)
	if err != nil {
		return nil, wrapErr(ErrTransport, err)
	}

	q := newQuorum(successMode, successN, len(lgroups))
	results := make(map[Key][]LookupResult, len(replies))
	accepted := make(map[RawID][]int, len(replies))
	rejected := false

	for id, keyReplies := range replies {
		orig, ok := byRawID[id]
		if !ok {
			continue
		}
		survivors := successfulGroupIDs(keyReplies)
		if !q.accepts(len(survivors)) {
			rejected = true
		}
		accepted[id] = survivors
		results[orig] = c.lookupsFromReplies(keyReplies, resolvedByID[id])
	}

	if rejected {
		c.metrics.bulkWriteRejected.Inc()
		c.compensateBulkWrite(ctx, resolvedByID, accepted)
		return nil, keyErr(ErrBulkWriteRejected, keys[0])
	}
	return results, nil
}

// compensateBulkWrite removes every key in the batch from the groups
// where it accepted (spec §4.5's "compensate ... every key in the batch
// from the groups where it did accept, best effort"), one session.BulkRemove
// call per group so keys that accepted different group sets are not
// removed from groups they never reached.
func (c *Client) compensateBulkWrite(ctx context.Context, resolvedByID map[RawID]Key, accepted map[RawID][]int) {
	byGroup := make(map[int][]Key)
	for id, survivors := range accepted {
		rk, ok := resolvedByID[id]
		if !ok {
			continue
		}
		for _, gid := range survivors {
			byGroup[gid] = append(byGroup[gid], rk)
		}
	}
	for gid, ks := range byGroup {
		c.session.BulkRemove(ctx, ks, []int{gid})
	}
}
