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
	"encoding/binary"
	"time"
)

// Frame types recognized by the embedded-header framing (spec §4.7).
const (
	FrameData      uint32 = 1
	FrameTimestamp uint32 = 2
)

const frameHeaderSize = 8 + 4 + 4 // size u64 + type u32 + flags u32

// DataContainer is an object payload with an optional typed-embedded
// header region (spec §3). When Embedded is false, Pack emits Payload
// verbatim with no frame header at all.
type DataContainer struct {
	Payload  []byte
	Embedded bool

	HasTimestamp bool
	Timestamp    time.Time
}

// Pack serializes c to wire bytes. If c.Embedded is set, it prepends
// recognized frames in fixed order — currently just TIMESTAMP, if
// present — followed by the DATA frame holding Payload. Otherwise the
// payload bytes are returned verbatim (spec §4.7).
func (c DataContainer) Pack() []byte {
	if !c.Embedded {
		return append([]byte(nil), c.Payload...)
	}
	var out []byte
	if c.HasTimestamp {
		out = appendFrame(out, FrameTimestamp, 0, packTimestamp(c.Timestamp))
	}
	out = appendFrame(out, FrameData, 0, c.Payload)
	return out
}

func appendFrame(dst []byte, typ, flags uint32, body []byte) []byte {
	var hdr [frameHeaderSize]byte
	binary.BigEndian.PutUint64(hdr[0:8], uint64(len(body)))
	binary.BigEndian.PutUint32(hdr[8:12], typ)
	binary.BigEndian.PutUint32(hdr[12:16], flags)
	dst = append(dst, hdr[:]...)
	dst = append(dst, body...)
	return dst
}

func packTimestamp(t time.Time) []byte {
	var body [16]byte
	binary.BigEndian.PutUint64(body[0:8], uint64(t.Unix()))
	binary.BigEndian.PutUint64(body[8:16], uint64(t.Nanosecond()))
	return body[:]
}

func unpackTimestamp(body []byte) time.Time {
	sec := int64(binary.BigEndian.Uint64(body[0:8]))
	nsec := int64(binary.BigEndian.Uint64(body[8:16]))
	return time.Unix(sec, nsec).UTC()
}

// UnpackContainer parses raw wire bytes produced by Pack with Embedded
// set. It scans frames until bytes are exhausted; unknown frame types
// are skipped for forward compatibility. If any frame's declared size
// exceeds the remaining bytes, it fails with ErrCorrupt (spec §4.7).
func UnpackContainer(raw []byte) (DataContainer, error) {
	c := DataContainer{Embedded: true}
	haveData := false
	for len(raw) > 0 {
		if len(raw) < frameHeaderSize {
			return DataContainer{}, ErrCorrupt
		}
		size := binary.BigEndian.Uint64(raw[0:8])
		typ := binary.BigEndian.Uint32(raw[8:12])
		raw = raw[frameHeaderSize:]
		if size > uint64(len(raw)) {
			return DataContainer{}, ErrCorrupt
		}
		body := raw[:size]
		raw = raw[size:]
		switch typ {
		case FrameData:
			c.Payload = append([]byte(nil), body...)
			haveData = true
		case FrameTimestamp:
			if len(body) != 16 {
				return DataContainer{}, ErrCorrupt
			}
			c.HasTimestamp = true
			c.Timestamp = unpackTimestamp(body)
		default:
			// unknown type: skip, forward compatibility
		}
	}
	if !haveData {
		return DataContainer{}, ErrCorrupt
	}
	return c, nil
}

// UnembeddedContainer wraps raw bytes as a plain, non-embedded payload —
// the shape used when the caller opted out of embedding (spec §4.7).
func UnembeddedContainer(raw []byte) DataContainer {
	return DataContainer{Payload: raw}
}
