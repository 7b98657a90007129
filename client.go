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

	"github.com/replistore/replistore/metabalancer"
)

// Client is the entry point of the library: one Client wraps one Session
// plus the configuration built from the Options passed to New. A Client
// is safe for concurrent use; all per-call state (groups, flags, success
// mode overrides) is passed as call parameters, never stored on the
// Client (spec §5).
type Client struct {
	cfg     Config
	session Session
	cache   *metabalancer.Client
	worker  *metabalancer.RefreshWorker
	metrics *clientMetrics
}

// New builds a Client over session using opts. If a metabalancer
// transport is configured, its weighted-cache refresh worker is started
// immediately; Close must be called to join it deterministically
// (spec §5).
func New(session Session, opts ...Option) (*Client, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	c := &Client{
		cfg:     cfg,
		session: session,
		cache:   metabalancer.NewClient(cfg.MetabalancerTransport),
		metrics: newClientMetrics(cfg.MetricsRegisterer),
	}
	if cfg.MetabalancerTransport != nil {
		c.worker = metabalancer.NewRefreshWorker(c.cache, cfg.MetabalancerRefresh, cfg.Logger)
		c.worker.Start()
	}
	return c, nil
}

// Close stops the metabalancer refresh worker, if one was started, and
// blocks until it has joined. Close is meant to run exactly once, at
// teardown, mirroring the teacher's tenant.Manager.Close.
func (c *Client) Close() {
	if c.worker != nil {
		c.worker.Stop()
	}
}

// Remove issues a best-effort remove of key from groups (or the
// configured defaults), logging and swallowing per-group failures
// (spec §7).
func (c *Client) Remove(ctx context.Context, key Key, groups []int) error {
	if err := c.checkLiveStates(ctx); err != nil {
		return err
	}
	lgroups, err := c.selectGroups(groups, 0)
	if err != nil {
		return err
	}
	resolved, err := c.session.Resolve(ctx, key)
	if err != nil {
		return keyErrf(ErrTransport, key, err)
	}
	c.removeFrom(ctx, resolved, lgroups)
	return nil
}

// RangeGet reads the range [from, to) and returns data bodies, or, if
// ioflags has IOFlagNoData set, a single-element vector containing the
// textual count (spec §6).
func (c *Client) RangeGet(ctx context.Context, from, to Key, limitStart, limitNum int, cflags CFlag, ioflags IOFlag, groups []int, referenceKey *Key) ([]string, error) {
	if err := c.checkLiveStates(ctx); err != nil {
		return nil, err
	}
	lgroups, err := c.selectGroups(groups, 0)
	if err != nil {
		return nil, err
	}
	bodies, count, isCount, err := c.session.RangeGet(ctx, from, to, limitStart, limitNum, cflags, ioflags, lgroups, referenceKey)
	if err != nil {
		return nil, keyErrf(ErrTransport, from, err)
	}
	if isCount {
		return []string{fmt.Sprintf("%d", count)}, nil
	}
	return bodies, nil
}

// LookupAddr returns the node addresses holding key in groups.
func (c *Client) LookupAddr(ctx context.Context, key Key, groups []int) ([]Remote, error) {
	lgroups, err := c.selectGroups(groups, 0)
	if err != nil {
		return nil, err
	}
	return c.session.LookupAddr(ctx, key, lgroups)
}

// ExecScript runs script against key's object in groups and returns the
// backend's textual result (spec §6).
func (c *Client) ExecScript(ctx context.Context, key Key, script string, data []byte, groups []int) (string, error) {
	lgroups, err := c.selectGroups(groups, 0)
	if err != nil {
		return "", err
	}
	return c.session.ExecScript(ctx, key, script, data, lgroups)
}

// StatLog returns per-node stats (spec §6).
func (c *Client) StatLog(ctx context.Context) ([]StatEntry, error) {
	return c.session.Stat(ctx)
}

// Ping reports whether the session's live-state count meets die_limit —
// the same threshold Write and Read enforce as a hard precondition
// (spec §6: "true iff live-state count >= die_limit").
func (c *Client) Ping(ctx context.Context) bool {
	return c.session.LiveStates(ctx) >= c.cfg.DieLimit
}

// UpdateIndexes, FindIndexes, and CheckIndexes forward verbatim to the
// Session (spec §1: secondary index maintenance is out of the core's
// scope beyond pass-through).
func (c *Client) UpdateIndexes(ctx context.Context, key Key, indexes []string, data [][]byte) error {
	return c.session.UpdateIndexes(ctx, key, indexes, data)
}

func (c *Client) FindIndexes(ctx context.Context, indexes []string) ([]Key, error) {
	return c.session.FindIndexes(ctx, indexes)
}

func (c *Client) CheckIndexes(ctx context.Context, key Key, indexes []string) ([]bool, error) {
	return c.session.CheckIndexes(ctx, key, indexes)
}

// GetMetabalancerGroupInfo answers the out-of-band
// get_metabalancer_group_info query (spec §4.6).
func (c *Client) GetMetabalancerGroupInfo(group int) (metabalancer.GroupInfo, error) {
	info, err := c.cache.GetGroupInfo(group)
	if err != nil {
		c.metrics.metabalancerErrors.Inc()
		return metabalancer.GroupInfo{}, fmt.Errorf("replistore: %w", err)
	}
	return info, nil
}

// GetSymmetricGroups, GetBadGroups, and GetAllGroups forward to the
// metabalancer client (spec §4.6).
func (c *Client) GetSymmetricGroups() ([][]int, error) {
	groups, err := c.cache.GetSymmetricGroups()
	if err != nil {
		c.metrics.metabalancerErrors.Inc()
	}
	return groups, err
}

func (c *Client) GetBadGroups() ([][]int, error) {
	groups, err := c.cache.GetBadGroups()
	if err != nil {
		c.metrics.metabalancerErrors.Inc()
	}
	return groups, err
}

func (c *Client) GetAllGroups() ([][]int, error) {
	groups, err := c.cache.GetAllGroups()
	if err != nil {
		c.metrics.metabalancerErrors.Inc()
	}
	return groups, err
}
