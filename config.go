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
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/replistore/replistore/metabalancer"
)

// SuccessMode is a write-acceptance policy (spec §4.1).
type SuccessMode int

const (
	// SuccessAny accepts a write as soon as one group acknowledges it.
	SuccessAny SuccessMode = iota
	// SuccessQuorum accepts a write once floor(R/2)+1 groups acknowledge it.
	SuccessQuorum
	// SuccessAll requires every one of the R groups to acknowledge.
	SuccessAll
	// SuccessN requires at least the configured N groups to acknowledge
	// (see Config.SuccessN).
	SuccessN
)

func (m SuccessMode) String() string {
	switch m {
	case SuccessAny:
		return "ANY"
	case SuccessQuorum:
		return "QUORUM"
	case SuccessAll:
		return "ALL"
	case SuccessN:
		return "N"
	default:
		return "UNKNOWN"
	}
}

// MetabalancerUsage controls how hard the group selector leans on the
// weighted group cache (spec §4.2, §4.6).
type MetabalancerUsage int

const (
	// UsageNone never consults the metabalancer.
	UsageNone MetabalancerUsage = iota
	// UsageOptional consults it opportunistically and falls back
	// silently to the static selector on failure.
	UsageOptional
	// UsageNormal consults it and fails the operation (ErrMetabaseUnavailable)
	// if the transport errors.
	UsageNormal
	// UsageMandatory always consults it, even when the caller already
	// gave an explicit group list of the right size, and fails hard
	// on transport error.
	UsageMandatory
)

// RemoteAddr is an initial node address used to bootstrap the session.
type RemoteAddr struct {
	Host          string
	Port          int
	AddressFamily int
}

// Config holds every recognized option from spec §3. It is built with
// New and a set of Options, never deserialized from a config file —
// configuration parsing is explicitly out of this library's scope.
type Config struct {
	InitialRemotes   []RemoteAddr
	DefaultGroups    []int `validate:"omitempty,dive,gte=0"`
	BasePort         int   `validate:"gte=0,lte=65535"`
	ReplicationCount int   `validate:"gte=0"`
	SuccessMode      SuccessMode
	SuccessN         int `validate:"gte=0"`
	DieLimit         int `validate:"gte=0"`
	ChunkSize        int `validate:"gte=0"`
	EblobStylePath   bool
	WaitTimeout      time.Duration `validate:"gte=0"`
	CheckTimeout     time.Duration `validate:"gte=0"`

	MetabalancerTransport metabalancer.Transport
	MetabalancerRefresh   time.Duration `validate:"gte=0"`
	MetabalancerUsage     MetabalancerUsage

	Logger *log.Logger

	// MetricsRegisterer, if set, receives the Client's Prometheus
	// collectors. A nil registerer (the default) leaves metrics
	// uncollected but still safely incrementable.
	MetricsRegisterer prometheus.Registerer
}

// Option configures a Config produced by New.
type Option func(*Config)

// WithInitialRemotes sets the bootstrap node addresses.
func WithInitialRemotes(remotes ...RemoteAddr) Option {
	return func(c *Config) { c.InitialRemotes = remotes }
}

// WithDefaultGroups sets the static fallback group list used by the
// selector when the caller gives no explicit groups (spec §4.2).
func WithDefaultGroups(groups ...int) Option {
	return func(c *Config) { c.DefaultGroups = append([]int(nil), groups...) }
}

// WithBasePort sets the port-synthesis base used by path derivation.
func WithBasePort(port int) Option {
	return func(c *Config) { c.BasePort = port }
}

// WithReplicationCount sets R; 0 means "use |groups|" (spec §3).
func WithReplicationCount(r int) Option {
	return func(c *Config) { c.ReplicationCount = r }
}

// WithSuccessMode sets the write-acceptance policy. n is only consulted
// when mode is SuccessN.
func WithSuccessMode(mode SuccessMode, n int) Option {
	return func(c *Config) {
		c.SuccessMode = mode
		c.SuccessN = n
	}
}

// WithDieLimit sets the minimum live-session count below which all
// operations refuse with ErrTooFewStates.
func WithDieLimit(n int) Option {
	return func(c *Config) { c.DieLimit = n }
}

// WithChunkSize sets the chunked-upload threshold; 0 disables chunking.
func WithChunkSize(n int) Option {
	return func(c *Config) { c.ChunkSize = n }
}

// WithEblobStylePath selects eblob-style path derivation (spec §6).
func WithEblobStylePath(v bool) Option {
	return func(c *Config) { c.EblobStylePath = v }
}

// WithTimeouts sets the per-call wait and check timeouts.
func WithTimeouts(wait, check time.Duration) Option {
	return func(c *Config) {
		c.WaitTimeout = wait
		c.CheckTimeout = check
	}
}

// WithMetabalancer configures the optional metadata balancer: the RPC
// transport to use, how often the weighted-cache refresh worker should
// run, and how hard the selector should lean on it. If transport is nil,
// the refresh worker is never started and usage is forced to UsageNone
// (spec §9's "no code is conditionally compiled" — it's simply never
// exercised at runtime).
func WithMetabalancer(transport metabalancer.Transport, refresh time.Duration, usage MetabalancerUsage) Option {
	return func(c *Config) {
		c.MetabalancerTransport = transport
		c.MetabalancerRefresh = refresh
		c.MetabalancerUsage = usage
	}
}

// WithLogger sets the diagnostic logger. If unset, log.Default() is used.
func WithLogger(l *log.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithMetricsRegisterer registers the Client's counters with reg instead
// of leaving them uncollected.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(c *Config) { c.MetricsRegisterer = reg }
}

// defaultConfig matches the defaults enumerated in spec §3.
func defaultConfig() Config {
	return Config{
		BasePort:            1024,
		ReplicationCount:    0,
		SuccessMode:         SuccessQuorum,
		DieLimit:            0,
		ChunkSize:           0,
		WaitTimeout:         5 * time.Second,
		CheckTimeout:        time.Second,
		MetabalancerRefresh: 60 * time.Second,
		MetabalancerUsage:   UsageNone,
	}
}

var configValidator = validator.New()

// buildConfig applies opts over the defaults and validates the result.
func buildConfig(opts []Option) (Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MetabalancerTransport == nil {
		cfg.MetabalancerUsage = UsageNone
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if err := configValidator.Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("replistore: invalid config: %w", err)
	}
	return cfg, nil
}
