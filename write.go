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

	"github.com/google/uuid"
)

// WriteRequest bundles a Write call's parameters (spec §6's
// write(key, data, offset?, size?, cflags?, ioflags?, groups?, success_copies?)).
type WriteRequest struct {
	Key     Key
	Data    []byte
	Offset  uint64
	Size    uint64
	CFlags  CFlag
	IOFlags IOFlag
	Groups  []int

	// SuccessMode, if non-nil, overrides Config.SuccessMode for this
	// call; SuccessN is only consulted when *SuccessMode == SuccessN.
	SuccessMode *SuccessMode
	SuccessN    int
}

// Write uploads data for key, per spec §4.3.
func (c *Client) Write(ctx context.Context, req WriteRequest) ([]LookupResult, error) {
	if err := c.checkLiveStates(ctx); err != nil {
		return nil, err
	}
	r := c.resolveReplicationCount(req.Groups)
	mode, n := c.cfg.SuccessMode, c.cfg.SuccessN
	if req.SuccessMode != nil {
		mode, n = *req.SuccessMode, req.SuccessN
	}
	q := newQuorum(mode, n, r)

	lgroups, err := c.writeGroups(ctx, req.Groups, r)
	if err != nil {
		return nil, err
	}

	key, err := c.session.Resolve(ctx, req.Key)
	if err != nil {
		return nil, keyErrf(ErrTransport, req.Key, err)
	}

	c.metrics.writeAttempts.Inc()

	if req.IOFlags.disablesChunking() {
		return c.writeSingleFlavor(ctx, key, req, lgroups), nil
	}

	useChunked := c.cfg.ChunkSize > 0 && len(req.Data) > c.cfg.ChunkSize && !req.Key.IsRaw()
	if !useChunked {
		replies := c.session.WriteData(ctx, key, req.Data, req.Offset, req.Size, req.CFlags, req.IOFlags, lgroups)
		return c.finishWrite(ctx, key, req.Key, req.CFlags, lgroups, replies, q)
	}
	return c.writeChunked(ctx, key, req, lgroups, q)
}

// writeSingleFlavor handles the PREPARE/COMMIT/PLAIN_WRITE bypass: a
// single low-level call of that flavor, no chunking, no acceptance
// check, no compensation — the caller is orchestrating chunks itself
// (spec §4.3's "single low-level call of that flavor; no chunking;
// return its lookup vector").
func (c *Client) writeSingleFlavor(ctx context.Context, key Key, req WriteRequest, groups []int) []LookupResult {
	var replies []GroupReply
	switch {
	case req.IOFlags&IOFlagPrepare != 0:
		total := req.Size
		if total == 0 {
			total = uint64(len(req.Data))
		}
		replies = c.session.WritePrepare(ctx, key, req.Data, total, req.CFlags, groups)
	case req.IOFlags&IOFlagCommit != 0:
		replies = c.session.WriteCommit(ctx, key, req.Data, req.Offset, req.CFlags, groups)
	default: // IOFlagPlainWrite
		replies = c.session.WritePlain(ctx, key, req.Data, req.Offset, req.CFlags, groups)
	}
	return c.lookupsFromReplies(replies, key)
}

// writeChunked implements the chunked upload path: prepare, zero or
// more plain chunks, commit, tracking the surviving set as it goes
// (spec §4.3).
func (c *Client) writeChunked(ctx context.Context, key Key, req WriteRequest, lgroups []int, q quorum) ([]LookupResult, error) {
	attemptID := uuid.NewString()
	total := uint64(len(req.Data))
	chunkSize := uint64(c.cfg.ChunkSize)

	firstLen := minUint64(chunkSize, total)
	replies := c.session.WritePrepare(ctx, key, req.Data[:firstLen], total, req.CFlags, lgroups)
	survivors := successfulGroupIDs(replies)
	if !q.accepts(len(survivors)) {
		c.removeFrom(ctx, key, lgroups)
		c.metrics.writeRejected.Inc()
		return nil, keyErr(ErrWriteRejected, req.Key)
	}

	offset := firstLen
	var lastReplies []GroupReply
	for offset < total {
		remaining := total - offset
		chunkLen := minUint64(chunkSize, remaining)
		chunk := req.Data[offset : offset+chunkLen]
		isLast := offset+chunkLen >= total

		var chunkReplies []GroupReply
		if isLast {
			chunkReplies = c.session.WriteCommit(ctx, key, chunk, offset, req.CFlags, survivors)
		} else {
			chunkReplies = c.session.WritePlain(ctx, key, chunk, offset, req.CFlags, survivors)
		}
		next := successfulGroupIDs(chunkReplies)
		if !q.accepts(len(next)) {
			c.metrics.writeRejected.Inc()
			c.removeFrom(ctx, key, lgroups)
			return nil, keyErr(ErrWriteRejected, req.Key)
		}
		if len(next) < len(survivors) {
			c.metrics.chunkSurvivorShrink.Inc()
			c.cfg.Logger.Printf("replistore: chunked write %s (attempt %s): surviving set shrank from %d to %d groups", req.Key, attemptID, len(survivors), len(next))
		}
		survivors = next
		offset += chunkLen
		if isLast {
			lastReplies = chunkReplies
		}
	}

	// Post-write compensation: any group dropped along the way is
	// best-effort removed even though the commit still satisfies
	// acceptance (spec §8 S5). finishWrite applies the identical rule
	// for the one-shot path (spec §8 S2), so this isn't chunking-specific.
	if len(survivors) < len(lgroups) {
		incomplete := subtractGroups(lgroups, survivors)
		c.removeFrom(ctx, key, incomplete)
	}

	if err := c.finalizeMetadata(ctx, key, req.Key, survivors); err != nil {
		return nil, err
	}
	return c.lookupsFromReplies(lastReplies, key), nil
}

// finishWrite implements the one-shot path's acceptance check,
// compensation, and metadata finalize (spec §4.3).
func (c *Client) finishWrite(ctx context.Context, key, origKey Key, cflags CFlag, lgroups []int, replies []GroupReply, q quorum) ([]LookupResult, error) {
	survivors := successfulGroupIDs(replies)
	if !q.accepts(len(survivors)) {
		c.metrics.writeRejected.Inc()
		c.removeFrom(ctx, key, lgroups)
		return nil, keyErr(ErrWriteRejected, origKey)
	}
	if len(survivors) < len(lgroups) {
		incomplete := subtractGroups(lgroups, survivors)
		c.removeFrom(ctx, key, incomplete)
	}
	if err := c.finalizeMetadata(ctx, key, origKey, survivors); err != nil {
		return nil, err
	}
	return c.lookupsFromReplies(replies, key), nil
}

// finalizeMetadata issues the post-body metadata-write call against the
// surviving set, with cflags=0 and a zero timestamp (spec §4.3). This
// call is explicitly NOT itself quorum-checked (spec §9's open
// question): any per-group failure here propagates as a write failure
// even though the body is already durable; the body is not removed.
func (c *Client) finalizeMetadata(ctx context.Context, key, origKey Key, survivors []int) error {
	if len(survivors) == 0 {
		return nil
	}
	replies := c.session.WriteMetadata(ctx, key, 0, survivors)
	for _, r := range replies {
		if r.Err != nil {
			return keyErrf(ErrWriteRejected, origKey, fmt.Errorf("metadata finalize failed in group %d: %w", r.GroupID, r.Err))
		}
	}
	return nil
}

// removeFrom issues a best-effort remove; individual failures are
// logged and swallowed (spec §7: "best-effort compensation errors are
// logged and swallowed"), following the discipline of the teacher's
// garbage-collection code in db/gc.go.
func (c *Client) removeFrom(ctx context.Context, key Key, groups []int) {
	if len(groups) == 0 {
		return
	}
	replies := c.session.Remove(ctx, key, groups)
	for _, r := range replies {
		if r.Err != nil {
			c.cfg.Logger.Printf("replistore: best-effort remove of %s from group %d failed: %s", key, r.GroupID, r.Err)
		}
	}
}

func (c *Client) lookupsFromReplies(replies []GroupReply, key Key) []LookupResult {
	id, _ := key.RawID()
	out := make([]LookupResult, 0, len(replies))
	for _, r := range replies {
		if r.Err != nil {
			continue
		}
		out = append(out, c.applyPath(r.Lookup, id))
	}
	return out
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func (c *Client) checkLiveStates(ctx context.Context) error {
	if c.cfg.DieLimit <= 0 {
		return nil
	}
	if c.session.LiveStates(ctx) < c.cfg.DieLimit {
		return ErrTooFewStates
	}
	return nil
}
