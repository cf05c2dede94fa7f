// Package sink defines the abstract persistence capability every
// collector backend implements, and the shared ErrNotOpen value the
// backends return when used before a successful Open.
package sink

import (
	"github.com/pkg/errors"

	"nf9sond/pkg/models/flow"
)

// Sink receives completed flow records and persists them. A Sink is
// owned by exactly one Probe Runtime; nothing here is shared across
// probes, though two probes may point at backends of the same kind
// (e.g. two ClickHouse sinks, each with its own connection).
type Sink interface {
	// Open acquires resources (connections, file handles) and
	// implicitly calls EnsureSchema.
	Open() error

	// EnsureSchema idempotently creates the target table or file
	// header if absent. Returns nil if already present.
	EnsureSchema() error

	// Write appends one record. Rows are independent: a Sink must
	// never batch records into a multi-row transaction, since the
	// Probe Runtime writes one record at a time and never retries a
	// failed write.
	Write(record *flow.Record) error

	// HealthCheck probes reachability without mutating schema.
	HealthCheck() error

	// Close releases resources. Idempotent.
	Close() error
}

// ErrNotOpen is returned by Write/HealthCheck/EnsureSchema when called
// before a successful Open.
var ErrNotOpen = errors.New("sink: not open")
