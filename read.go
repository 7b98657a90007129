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

// ReadRequest bundles a Read call's parameters (spec §6's
// read(key, offset?, size?, cflags?, ioflags?, groups?, latest?, embedded?)).
type ReadRequest struct {
	Key     Key
	Offset  uint64
	Size    uint64
	CFlags  CFlag
	IOFlags IOFlag
	Groups  []int
	Latest  bool
	// Embedded selects TLV frame parsing of the returned body (spec
	// §4.7). When false, the body is wrapped as a plain, unembedded
	// container.
	Embedded bool
}

// Read issues a read for req.Key against the resolved candidate group
// list, per spec §4.4: an ordinary read by default, or "read-latest" if
// Latest is set. On success the body is decoded through the data
// container framer; on a per-group error from every tried group, Read
// fails with ErrNotFound.
func (c *Client) Read(ctx context.Context, req ReadRequest) (DataContainer, error) {
	if err := c.checkLiveStates(ctx); err != nil {
		return DataContainer{}, err
	}
	lgroups, err := c.selectGroups(req.Groups, 0)
	if err != nil {
		return DataContainer{}, err
	}
	resolved, err := c.session.Resolve(ctx, req.Key)
	if err != nil {
		return DataContainer{}, keyErrf(ErrTransport, req.Key, err)
	}

	c.metrics.readAttempts.Inc()

	var replies []GroupReply
	if req.Latest {
		replies = c.session.ReadLatest(ctx, resolved, req.Offset, req.Size, req.CFlags, req.IOFlags, lgroups)
	} else {
		replies = c.session.Read(ctx, resolved, req.Offset, req.Size, req.CFlags, req.IOFlags, lgroups)
	}

	for _, r := range replies {
		if r.Err != nil {
			continue
		}
		if !req.Embedded {
			return UnembeddedContainer(r.Body), nil
		}
		dc, err := UnpackContainer(r.Body)
		if err != nil {
			return DataContainer{}, keyErrf(ErrCorrupt, req.Key, err)
		}
		return dc, nil
	}
	c.metrics.readNotFound.Inc()
	return DataContainer{}, keyErr(ErrNotFound, req.Key)
}

// Lookup resolves key's current location, trying groups (or the
// configured defaults) one at a time and stopping at the first one that
// answers without error — spec §4.4's group-elimination loop: on error,
// drop that group id and retry against what remains; fail with
// ErrNotFound once the candidate list is exhausted.
func (c *Client) Lookup(ctx context.Context, key Key, groups []int) (LookupResult, error) {
	if err := c.checkLiveStates(ctx); err != nil {
		return LookupResult{}, err
	}
	lgroups, err := c.selectGroups(groups, 0)
	if err != nil {
		return LookupResult{}, err
	}
	resolved, err := c.session.Resolve(ctx, key)
	if err != nil {
		return LookupResult{}, keyErrf(ErrTransport, key, err)
	}
	id, _ := resolved.RawID()

	remaining := lgroups
	for len(remaining) > 0 {
		gid := remaining[0]
		reply := c.session.Lookup(ctx, resolved, gid)
		if reply.Err == nil {
			if len(remaining) != len(lgroups) {
				c.metrics.lookupFallbacks.Inc()
			}
			return c.applyPath(reply.Lookup, id), nil
		}
		remaining = withoutGroup(remaining, gid)
	}
	return LookupResult{}, keyErr(ErrNotFound, key)
}
