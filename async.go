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

	"github.com/google/uuid"
)

// asyncResult is the value a Future's delivering goroutine posts once,
// matching the teacher's dcache worker pattern of a goroutine writing its
// outcome onto a `ret chan<- error` that the original caller blocks on
// (tenant/dcache/worker.go's reservation.add/close).
type asyncResult[T any] struct {
	val T
	err error
}

// Future is the awaitable handle every *Async method returns (spec §5):
// the goroutine launched by the Async call is the "session's I/O thread"
// that delivers the result; Get is the suspension point.
type Future[T any] struct {
	id string
	ch chan asyncResult[T]
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{id: uuid.NewString(), ch: make(chan asyncResult[T], 1)}
}

// ID returns the handle's correlation id.
func (f *Future[T]) ID() string { return f.id }

// Get blocks until the operation completes, or ctx is done first.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case r := <-f.ch:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func runAsync[T any](fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
		v, err := fn()
		f.ch <- asyncResult[T]{val: v, err: err}
	}()
	return f
}

// LookupFuture is the handle returned by async calls whose result is a
// LookupResult vector (one entry per surviving group); GetOne answers
// the original library's get_one() for a result set with multiple
// entries by returning just the first.
type LookupFuture struct {
	*Future[[]LookupResult]
}

// GetOne blocks for the full result, then returns its first entry, or
// ErrNotFound if the result vector came back empty.
func (f *LookupFuture) GetOne(ctx context.Context) (LookupResult, error) {
	results, err := f.Get(ctx)
	if err != nil {
		return LookupResult{}, err
	}
	if len(results) == 0 {
		return LookupResult{}, ErrNotFound
	}
	return results[0], nil
}

// ReadAsync issues Read on a background goroutine.
func (c *Client) ReadAsync(ctx context.Context, req ReadRequest) *Future[DataContainer] {
	return runAsync(func() (DataContainer, error) { return c.Read(ctx, req) })
}

// WriteAsync issues Write on a background goroutine.
func (c *Client) WriteAsync(ctx context.Context, req WriteRequest) *LookupFuture {
	return &LookupFuture{runAsync(func() ([]LookupResult, error) { return c.Write(ctx, req) })}
}

// LookupAsync issues Lookup on a background goroutine.
func (c *Client) LookupAsync(ctx context.Context, key Key, groups []int) *Future[LookupResult] {
	return runAsync(func() (LookupResult, error) { return c.Lookup(ctx, key, groups) })
}

// RemoveAsync issues Remove on a background goroutine.
func (c *Client) RemoveAsync(ctx context.Context, key Key, groups []int) *Future[struct{}] {
	return runAsync(func() (struct{}, error) { return struct{}{}, c.Remove(ctx, key, groups) })
}

// BulkReadAsync issues BulkRead on a background goroutine.
func (c *Client) BulkReadAsync(ctx context.Context, keys []Key, groups []int) *Future[map[Key]DataContainer] {
	return runAsync(func() (map[Key]DataContainer, error) { return c.BulkRead(ctx, keys, groups) })
}

// BulkWriteAsync issues BulkWrite on a background goroutine.
func (c *Client) BulkWriteAsync(ctx context.Context, keys []Key, payloads [][]byte, cflags CFlag, groups []int, successMode SuccessMode, successN int) *Future[map[Key][]LookupResult] {
	return runAsync(func() (map[Key][]LookupResult, error) {
		return c.BulkWrite(ctx, keys, payloads, cflags, groups, successMode, successN)
	})
}
