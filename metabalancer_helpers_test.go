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
	"github.com/vmihailenco/msgpack/v5"

	"github.com/replistore/replistore/metabalancer"
)

// fakeTransport implements metabalancer.Transport in-process via the same
// msgpack round trip NATSTransport uses over the wire, so tests never
// need a real NATS server to exercise the metabalancer-augmented group
// selection path.
type fakeTransport struct {
	groupWeights map[int][]metabalancer.GroupWeight
	err          error
}

func (t *fakeTransport) Request(method string, req, resp any) error {
	if t.err != nil {
		return t.err
	}
	body, err := msgpack.Marshal(t.groupWeights)
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(body, resp)
}

func groupWeightsFixture() map[int][]metabalancer.GroupWeight {
	return map[int][]metabalancer.GroupWeight{
		3: {{Groups: []int{1, 2, 3}, Weight: 1}},
	}
}
