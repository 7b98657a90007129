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

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"
)

// NATSTransport implements Transport as a NATS request/reply call: it
// msgpack-encodes req, publishes it to method as a subject, and blocks
// for a msgpack-encoded reply (spec §6: "msgpack over a request/response
// RPC bus, service name mastermind").
type NATSTransport struct {
	Conn    *nats.Conn
	Timeout time.Duration
}

// NewNATSTransport dials url and returns a ready-to-use transport.
func NewNATSTransport(url string, timeout time.Duration) (*NATSTransport, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("metabalancer: nats connect: %w", err)
	}
	return &NATSTransport{Conn: conn, Timeout: timeout}, nil
}

// Request implements Transport.
func (t *NATSTransport) Request(method string, req, resp any) error {
	body, err := msgpack.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	msg, err := t.Conn.Request(method, body, timeout)
	if err != nil {
		return fmt.Errorf("nats request: %w", err)
	}
	if err := msgpack.Unmarshal(msg.Data, resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (t *NATSTransport) Close() {
	t.Conn.Close()
}
