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
	"fmt"

	"github.com/dchest/siphash"
)

// shardKey0, shardKey1 are the fixed siphash keys used to compute the
// eblob-style shard subdirectory. They need not be secret — the hash
// only needs to distribute ids evenly across a fixed number of shard
// directories, mirroring the "hash the id, shard the directory" idea
// many packed-blob backends use to keep any one directory from growing
// without bound.
const (
	shardKey0 uint64 = 0x1122334455667788
	shardKey1 uint64 = 0x8877665544332211
)

const eblobShardCount = 256

// derivePort synthesizes the node port for a group the way spec §6
// specifies: base_port + the group id's low bits.
func derivePort(basePort, groupID int) int {
	return basePort + (groupID & 0xff)
}

// applyPath fills in Port on a LookupResult that a Session has already
// populated with GroupID/Host/AddressFamily and either a plain path or a
// packed-blob reference (spec §6). In eblob mode, a result with HasBlob
// set also gets its StoragePath rewritten from the blob file/offset/size
// triple; every other field is left as the Session set it.
func (c *Client) applyPath(lr LookupResult, id RawID) LookupResult {
	lr.Port = derivePort(c.cfg.BasePort, lr.GroupID)
	if !c.cfg.EblobStylePath {
		return lr
	}
	if !lr.HasBlob {
		return lr
	}
	shard := siphash.Hash(shardKey0, shardKey1, id[:]) % eblobShardCount
	lr.StoragePath = fmt.Sprintf("%02x/%s@%d:%d", shard, lr.BlobFile, lr.BlobOffset, lr.BlobSize)
	return lr
}
