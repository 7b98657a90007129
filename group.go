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
	"math/rand"

	"golang.org/x/exp/slices"
)

// selectGroups implements spec §4.2's select(explicit, count) operation.
//
// The default group list is immutable after construction (spec §5); the
// shuffle below always operates on a local copy, never the Config's
// slice directly.
func (c *Client) selectGroups(explicit []int, count int) ([]int, error) {
	var groups []int
	if len(explicit) > 0 {
		groups = append([]int(nil), explicit...)
	} else {
		groups = c.shuffledDefaults()
	}
	if count > 0 && count < len(groups) {
		groups = groups[:count]
	}
	if len(groups) == 0 {
		return nil, ErrNoGroups
	}
	return groups, nil
}

// shuffledDefaults returns a copy of the configured default group list
// with every entry after the first randomized; the head is kept fixed
// as an affinity anchor (spec §4.2 step 2).
func (c *Client) shuffledDefaults() []int {
	defaults := c.cfg.DefaultGroups
	out := make([]int, len(defaults))
	copy(out, defaults)
	if len(out) >= 2 {
		tail := out[1:]
		rand.Shuffle(len(tail), func(i, j int) {
			tail[i], tail[j] = tail[j], tail[i]
		})
	}
	return out
}

// writeGroups resolves the candidate group list for a write, applying
// the metabalancer augmentation in spec §4.2's "Write-time augmentation":
// if the explicit group count doesn't match R, or usage is MANDATORY,
// the weighted cache is consulted for a size-R pick.
func (c *Client) writeGroups(ctx context.Context, explicit []int, r int) ([]int, error) {
	groups, err := c.selectGroups(explicit, 0)
	if err != nil {
		return nil, err
	}
	usage := c.cfg.MetabalancerUsage
	needsCache := usage >= UsageOptional && (len(explicit) != r || usage == UsageMandatory)
	if needsCache {
		picked, cacheErr := c.cache.ChooseStrict(r)
		if cacheErr == nil {
			groups = picked
		} else if usage >= UsageNormal {
			return nil, wrapErr(ErrMetabaseUnavailable, cacheErr)
		}
		// usage == UsageOptional: fall back to groups from step 1-3.
	}
	groups = truncateGroups(groups, r)
	if len(groups) == 0 {
		return nil, ErrNoGroups
	}
	return groups, nil
}

// truncateGroups truncates groups to at most r entries, leaving it
// untouched if r <= 0 or groups is already smaller.
func truncateGroups(groups []int, r int) []int {
	if r > 0 && r < len(groups) {
		return slices.Clone(groups[:r])
	}
	return groups
}

// resolveReplicationCount resolves R per spec §4.3: explicit |groups|,
// else Config.ReplicationCount, else |default groups|.
func (c *Client) resolveReplicationCount(explicit []int) int {
	if len(explicit) > 0 {
		return len(explicit)
	}
	if c.cfg.ReplicationCount > 0 {
		return c.cfg.ReplicationCount
	}
	return len(c.cfg.DefaultGroups)
}

// withoutGroup returns groups with id removed, used by the lookup
// elimination loop (spec §4.4).
func withoutGroup(groups []int, id int) []int {
	out := groups[:0:0]
	for _, g := range groups {
		if g != id {
			out = append(out, g)
		}
	}
	return out
}

// successfulGroupIDs returns the group ids of replies with no error.
func successfulGroupIDs(replies []GroupReply) []int {
	out := make([]int, 0, len(replies))
	for _, r := range replies {
		if r.Err == nil {
			out = append(out, r.GroupID)
		}
	}
	return out
}

// subtractGroups returns groups minus survivors, preserving order
// (used to compute "incomplete groups" for compensation).
func subtractGroups(groups, survivors []int) []int {
	set := make(map[int]struct{}, len(survivors))
	for _, s := range survivors {
		set[s] = struct{}{}
	}
	out := make([]int, 0, len(groups))
	for _, g := range groups {
		if _, ok := set[g]; !ok {
			out = append(out, g)
		}
	}
	return out
}
