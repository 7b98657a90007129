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

import "github.com/prometheus/client_golang/prometheus"

// clientMetrics holds the Prometheus counters a Client exposes. They are
// registered under a caller-chosen prometheus.Registerer rather than
// prometheus.DefaultRegisterer, so a process can run more than one Client
// without a registration collision.
type clientMetrics struct {
	writeAttempts       prometheus.Counter
	writeRejected       prometheus.Counter
	bulkWriteRejected   prometheus.Counter
	chunkSurvivorShrink prometheus.Counter
	readAttempts        prometheus.Counter
	readNotFound        prometheus.Counter
	lookupFallbacks     prometheus.Counter
	metabalancerErrors  prometheus.Counter
}

func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	m := &clientMetrics{
		writeAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "replistore",
			Name:      "write_attempts_total",
			Help:      "Writes attempted through Client.Write.",
		}),
		writeRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "replistore",
			Name:      "write_rejected_total",
			Help:      "Writes that failed the acceptance predicate.",
		}),
		bulkWriteRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "replistore",
			Name:      "bulk_write_rejected_total",
			Help:      "Bulk writes that failed acceptance for at least one key.",
		}),
		chunkSurvivorShrink: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "replistore",
			Name:      "chunk_survivor_shrink_total",
			Help:      "Chunked writes where the surviving group set shrank mid-upload.",
		}),
		readAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "replistore",
			Name:      "read_attempts_total",
			Help:      "Reads attempted through Client.Read.",
		}),
		readNotFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "replistore",
			Name:      "read_not_found_total",
			Help:      "Reads that exhausted every candidate group.",
		}),
		lookupFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "replistore",
			Name:      "lookup_fallbacks_total",
			Help:      "Lookup calls that had to try more than one group.",
		}),
		metabalancerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "replistore",
			Name:      "metabalancer_errors_total",
			Help:      "Metabalancer queries through the Client's query methods that returned an error.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.writeAttempts, m.writeRejected, m.bulkWriteRejected,
			m.chunkSurvivorShrink, m.readAttempts, m.readNotFound,
			m.lookupFallbacks, m.metabalancerErrors,
		)
	}
	return m
}
