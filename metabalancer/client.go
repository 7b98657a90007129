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

package metabalancer

import (
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v2"
)

// method names on the "mastermind" service (spec §6).
const (
	methodGroupWeights    = "mastermind.get_group_weights"
	methodGroupInfo       = "mastermind.get_group_info"
	methodSymmetricGroups = "mastermind.get_symmetric_groups"
	methodBadGroups       = "mastermind.get_bad_groups"
	methodAllGroups       = "mastermind.get_all_groups"
)

// groupInfoTTL bounds how long a get_metabalancer_group_info answer is
// reused; this query is explicitly out-of-band (spec §4.6), not part of
// the periodic weighted-cache refresh, so it gets its own short-lived
// cache instead of living in the WeightedCache snapshot.
const groupInfoTTL = 30 * time.Second

// Client is the metabalancer-facing half of the group-selection layer:
// the weighted cache plus the RPC calls that keep it (and the
// out-of-band group-info cache) fresh.
type Client struct {
	transport Transport
	cache     *WeightedCache
	groupInfo *ttlcache.Cache
}

// NewClient wraps transport. transport may be nil, in which case every
// RPC method fails, ChooseStrict returns ErrUninitialized, and Choose
// returns an empty pick —
// this is how the metabalancer path is "never exercised" at runtime when
// the caller configured no transport (spec §9).
func NewClient(transport Transport) *Client {
	gi := ttlcache.NewCache()
	gi.SetTTL(groupInfoTTL)
	return &Client{
		transport: transport,
		cache:     NewWeightedCache(),
		groupInfo: gi,
	}
}

// Configured reports whether a transport was provided.
func (c *Client) Configured() bool { return c.transport != nil }

// Refresh fetches a fresh group-weights table and installs it into the
// cache (spec §4.6's refresh protocol).
func (c *Client) Refresh() error {
	if c.transport == nil {
		return fmt.Errorf("metabalancer: no transport configured")
	}
	req := groupWeightsRequest{Stamp: c.cache.nextStamp()}
	var resp groupWeightsResponse
	if err := c.transport.Request(methodGroupWeights, &req, &resp); err != nil {
		return fmt.Errorf("metabalancer: get_group_weights: %w", err)
	}
	c.cache.install(resp)
	return nil
}

// Choose returns a weighted-random group set of the given size. If the
// cache has never been populated, Choose attempts one synchronous
// refresh first; if that also fails (or the cache still has nothing for
// this size), Choose returns an empty, non-error result rather than
// propagating the failure, matching spec §3's invariant: "if
// uninitialized it attempts one synchronous refresh and may return
// empty."
func (c *Client) Choose(size int) ([]int, error) {
	if !c.cache.initialized() {
		_ = c.Refresh()
	}
	groups, err := c.cache.Choose(size)
	if err != nil {
		return []int{}, nil
	}
	return groups, nil
}

// ChooseStrict is Choose without the error-swallowing: callers that need
// to distinguish "got a pick" from "cache unresolvable" (write-time
// augmentation's fail-vs-fallback branch) use this instead. It still
// attempts the same one-shot synchronous refresh when uninitialized.
func (c *Client) ChooseStrict(size int) ([]int, error) {
	if !c.cache.initialized() {
		_ = c.Refresh()
	}
	return c.cache.Choose(size)
}

// GetGroupInfo answers the out-of-band get_metabalancer_group_info
// query, caching the answer for groupInfoTTL.
func (c *Client) GetGroupInfo(group int) (GroupInfo, error) {
	key := fmt.Sprintf("%d", group)
	if v, err := c.groupInfo.Get(key); err == nil {
		return v.(GroupInfo), nil
	}
	if c.transport == nil {
		return GroupInfo{}, fmt.Errorf("metabalancer: no transport configured")
	}
	req := groupInfoRequest{Group: group}
	var resp groupInfoResponse
	if err := c.transport.Request(methodGroupInfo, &req, &resp); err != nil {
		return GroupInfo{}, fmt.Errorf("metabalancer: get_group_info: %w", err)
	}
	info := GroupInfo{Couples: resp.Couples, Status: parseStatus(resp.Status)}
	_ = c.groupInfo.Set(key, info)
	return info, nil
}

// GetSymmetricGroups returns the metabalancer's symmetric-group sets.
func (c *Client) GetSymmetricGroups() ([][]int, error) {
	return c.groupList(methodSymmetricGroups)
}

// GetBadGroups returns the metabalancer's currently bad groups.
func (c *Client) GetBadGroups() ([][]int, error) {
	return c.groupList(methodBadGroups)
}

// GetAllGroups returns every group the metabalancer knows about.
func (c *Client) GetAllGroups() ([][]int, error) {
	return c.groupList(methodAllGroups)
}

func (c *Client) groupList(method string) ([][]int, error) {
	if c.transport == nil {
		return nil, fmt.Errorf("metabalancer: no transport configured")
	}
	var resp groupListResponse
	if err := c.transport.Request(method, struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("metabalancer: %s: %w", method, err)
	}
	return resp.Groups, nil
}
