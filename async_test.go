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
	"errors"
	"testing"
	"time"
)

func TestWriteAsyncGetOneReturnsFirstResult(t *testing.T) {
	c := newTestClient(t, newFakeSession(3), WithDefaultGroups(1, 2, 3))

	fut := c.WriteAsync(context.Background(), WriteRequest{Key: NewNamedKey("obj", 0), Data: []byte("body")})
	lr, err := fut.GetOne(context.Background())
	if err != nil {
		t.Fatalf("GetOne: %s", err)
	}
	if lr.GroupID == 0 {
		t.Fatal("expected a populated LookupResult")
	}
}

func TestWriteAsyncGetOnePropagatesFailure(t *testing.T) {
	session := newFakeSession(3)
	session.setDown(1, 2, 3)
	c := newTestClient(t, session, WithDefaultGroups(1, 2, 3), WithSuccessMode(SuccessAll, 0))

	fut := c.WriteAsync(context.Background(), WriteRequest{Key: NewNamedKey("obj", 0), Data: []byte("body")})
	if _, err := fut.GetOne(context.Background()); !errors.Is(err, ErrWriteRejected) {
		t.Fatalf("err = %v, want ErrWriteRejected", err)
	}
}

func TestReadAsyncDeliversResult(t *testing.T) {
	c := newTestClient(t, newFakeSession(3), WithDefaultGroups(1, 2, 3))

	fut := c.ReadAsync(context.Background(), ReadRequest{Key: NewNamedKey("obj", 0)})
	dc, err := fut.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %s", err)
	}
	if string(dc.Payload) != "payload" {
		t.Fatalf("Payload = %q, want %q", dc.Payload, "payload")
	}
}

func TestFutureGetHonorsContextCancellation(t *testing.T) {
	blocked := make(chan struct{})
	defer close(blocked)

	f := runAsync(func() (int, error) {
		<-blocked
		return 42, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := f.Get(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestRemoveAsyncCompletes(t *testing.T) {
	c := newTestClient(t, newFakeSession(3), WithDefaultGroups(1, 2, 3))
	fut := c.RemoveAsync(context.Background(), NewNamedKey("obj", 0), []int{1, 2, 3})
	if _, err := fut.Get(context.Background()); err != nil {
		t.Fatalf("Get: %s", err)
	}
}
