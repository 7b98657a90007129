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

// Package metabalancer talks to the optional external metadata balancer
// service (called "mastermind" on the wire, spec §6) that advises the
// core on group placement: a periodically refreshed, size-keyed table of
// weighted group sets, plus a handful of out-of-band queries about a
// single group's replication cohort.
//
// The package never runs unless a Transport is configured — there is no
// compile-time switch (spec §9's design note): an unconfigured Client
// has no refresh worker, every RPC fails, ChooseStrict returns
// ErrUninitialized, and Choose returns an empty pick.
package metabalancer

// Transport is the request/response RPC bus the metabalancer sits
// behind. It is service-name-qualified the way the wire spec describes
// ("mastermind", spec §6): Request encodes req with msgpack, sends it to
// method, and decodes the msgpack reply into the value resp points to.
type Transport interface {
	Request(method string, req, resp any) error
}

// GroupWeight is one candidate group set and its relative weight, as
// returned for one observed group-set size (spec §4.6).
type GroupWeight struct {
	Groups []int `msgpack:"groups"`
	Weight int   `msgpack:"weight"`
}

// groupWeightsResponse is the wire shape of get_group_weights: a mapping
// from group-set size to the list of candidate sets for that size
// (spec §6: "keys are set sizes and values are lists of (groups, weight)
// pairs").
type groupWeightsResponse map[int][]GroupWeight

// groupWeightsRequest carries the locally-bumped freshness stamp
// (spec §4.6: "used server-side for freshness; locally it is only
// bumped per request").
type groupWeightsRequest struct {
	Stamp uint64 `msgpack:"stamp"`
}

// Status is the metabalancer's coarse judgement of a group.
type Status int

const (
	StatusUnknown Status = iota
	StatusBad
	StatusCoupled
)

func parseStatus(s string) Status {
	switch s {
	case "bad":
		return StatusBad
	case "coupled":
		return StatusCoupled
	default:
		return StatusUnknown
	}
}

// GroupInfo is the metabalancer's view of one group's replication
// cohorts (spec §4.6).
type GroupInfo struct {
	Couples [][]int
	Status  Status
}

// groupInfoResponse is the raw wire shape; Status arrives as a string
// and is normalized into Status by parseStatus (spec §6: "status
// (string "bad"|"coupled" -> enum; anything else -> default/unknown)").
type groupInfoResponse struct {
	Couples [][]int `msgpack:"couples"`
	Status  string  `msgpack:"status"`
}

type groupInfoRequest struct {
	Group int `msgpack:"group"`
}

// groupListResponse is the simple group-id list wire shape shared by
// get_symmetric_groups / get_bad_groups / get_all_groups.
type groupListResponse struct {
	Groups [][]int `msgpack:"groups"`
}
