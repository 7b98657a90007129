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

// Package replistore is a smart client for a distributed, replicated,
// content-addressed object store.
//
// The store organizes nodes into groups; each group is an independent
// replica set of the same keyspace, and an object is expected to exist
// in several groups at once. Client hides replica selection, quorum
// policy, partial failures, chunked uploads, and (optionally) placement
// advice from a metadata balancer behind a single upload/download/lookup
// interface.
//
// Client does not implement the storage wire protocol itself: it talks
// to the backend through the Session interface, which is supplied by
// the embedder. Everything in this package is about orchestrating calls
// to that interface across groups, not about the wire format of any
// particular storage backend.
package replistore
