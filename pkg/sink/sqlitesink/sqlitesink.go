// Package sqlitesink implements the embedded-sql Sink backend against
// a local SQLite file, grounded on the pack's modernc.org/sqlite usage
// (grimm-is-flywall's internal/analytics store) but reworked to the
// Sink interface's per-record write contract.
package sqlitesink

import (
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"nf9sond/pkg/models/flow"
	"nf9sond/pkg/sink"
)

// Config holds the [Database] keys relevant to the embedded-sql sink
// type.
type Config struct {
	Path string // file path for the embedded SQL store
}

// Sink is a sink.Sink backed by a SQLite file, one row per flow
// record. modernc.org/sqlite is pure Go and cgo-free, matching the
// driver the pack already uses for embedded storage.
type Sink struct {
	cfg Config
	db  *sql.DB
}

var _ sink.Sink = (*Sink)(nil)

// New builds an unopened SQLite sink.
func New(cfg Config) *Sink {
	return &Sink{cfg: cfg}
}

// Open opens (creating if absent) the SQLite file and runs
// EnsureSchema. WAL mode and a busy timeout keep writes from a single
// probe goroutine from blocking indefinitely against SQLite's
// single-writer lock.
func (s *Sink) Open() error {
	db, err := sql.Open("sqlite", s.cfg.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return errors.Wrap(err, "sqlitesink: open")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return errors.Wrap(err, "sqlitesink: ping")
	}

	s.db = db
	return s.EnsureSchema()
}

// EnsureSchema creates the flows table if it doesn't already exist.
func (s *Sink) EnsureSchema() error {
	if s.db == nil {
		return sink.ErrNotOpen
	}

	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS flows (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			probe_name         TEXT NOT NULL,
			source_ip          TEXT,
			dest_ip            TEXT,
			source_port        INTEGER,
			dest_port          INTEGER,
			protocol           INTEGER,
			packet_count       INTEGER,
			byte_count         INTEGER,
			flow_start         TEXT,
			flow_end           TEXT,
			interface_in       INTEGER,
			interface_out      INTEGER,
			interface_in_name  TEXT,
			interface_out_name TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(err, "sqlitesink: ensure schema")
	}
	return nil
}

// Write inserts one record via a parameterized statement.
func (s *Sink) Write(record *flow.Record) error {
	if s.db == nil {
		return sink.ErrNotOpen
	}

	_, err := s.db.Exec(
		`INSERT INTO flows (
			probe_name, source_ip, dest_ip, source_port, dest_port, protocol,
			packet_count, byte_count, flow_start, flow_end,
			interface_in, interface_out, interface_in_name, interface_out_name
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ProbeName, record.SourceIP, record.DestinationIP,
		record.SourcePort, record.DestinationPort, record.Protocol,
		record.PacketCount, record.ByteCount, record.FlowStart, record.FlowEnd,
		record.InterfaceIn, record.InterfaceOut, record.InterfaceInName, record.InterfaceOutName,
	)
	if err != nil {
		return errors.Wrap(err, "sqlitesink: insert")
	}
	return nil
}

// HealthCheck pings the database file handle.
func (s *Sink) HealthCheck() error {
	if s.db == nil {
		return sink.ErrNotOpen
	}
	if err := s.db.Ping(); err != nil {
		return errors.Wrap(err, "sqlitesink: health check")
	}
	return nil
}

// Close releases the database handle. Idempotent.
func (s *Sink) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
