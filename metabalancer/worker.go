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
	"log"
	"sync"
	"time"
)

// RefreshWorker periodically calls Client.Refresh in the background
// (spec §4.6's refresh loop, §5's "exactly one, started at construction
// if metabalancer transport is configured; stopped deterministically at
// destruction via a flag + condition signal; join is guaranteed").
//
// The termination-flag-plus-condition-signal pattern in the source maps
// directly onto a done channel plus a WaitGroup here, the same shape the
// teacher's tenant/dcache worker and tenant cache-eviction loop use to
// make sure a background goroutine is always joined before the owning
// object finishes tearing down.
type RefreshWorker struct {
	client *Client
	period time.Duration
	logger *log.Logger

	done chan struct{}
	wg   sync.WaitGroup
}

// NewRefreshWorker builds a worker that refreshes client every period.
// It does not start until Start is called.
func NewRefreshWorker(client *Client, period time.Duration, logger *log.Logger) *RefreshWorker {
	if logger == nil {
		logger = log.Default()
	}
	return &RefreshWorker{
		client: client,
		period: period,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start launches the background refresh loop. Start must be called at
// most once.
func (w *RefreshWorker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *RefreshWorker) run() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if err := w.client.Refresh(); err != nil {
				w.logger.Printf("metabalancer: refresh failed: %s", err)
			}
		}
	}
}

// Stop signals the worker to terminate and blocks until it has exited.
// Stop is idempotent-unsafe to call twice — matching the teacher's
// Manager.Close, it is meant to run exactly once during teardown.
func (w *RefreshWorker) Stop() {
	close(w.done)
	w.wg.Wait()
}
