// Package diagnostics implements the one resource the probe runtimes
// share: the optional raw hex-dump file enabled by --diag. Every other
// piece of state in this collector is probe-private; this is the
// deliberate exception, guarded by a single mutex so concurrent
// probes' dumps never interleave mid-datagram.
package diagnostics

import (
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Dumper appends hex dumps of received datagrams to a file, one
// critical section per datagram so headers, bytes, and the trailing
// blank line stay contiguous even when multiple probe goroutines write
// concurrently.
type Dumper struct {
	mu   sync.Mutex
	file *os.File
}

// Open creates or appends to path. A nil *Dumper (returned on an empty
// path by OpenOptional) is valid and turns Dump into a no-op.
func Open(path string) (*Dumper, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "diagnostics: open")
	}
	return &Dumper{file: f}, nil
}

// OpenOptional returns a nil *Dumper when path is empty, so callers can
// unconditionally call Dump without checking whether --diag was set.
func OpenOptional(path string) (*Dumper, error) {
	if path == "" {
		return nil, nil
	}
	return Open(path)
}

// Dump writes one datagram's header line and hex bytes as a single
// critical section. A nil receiver is a no-op, so it is safe to call
// on every received datagram regardless of whether diagnostics are
// enabled.
func (d *Dumper) Dump(probeName, sourceAddr string, datagram []byte) error {
	if d == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	header := fmt.Sprintf("probe=%s source=%s length=%d\n", probeName, sourceAddr, len(datagram))
	if _, err := d.file.WriteString(header); err != nil {
		return errors.Wrap(err, "diagnostics: write header")
	}
	if _, err := d.file.WriteString(hex.Dump(datagram)); err != nil {
		return errors.Wrap(err, "diagnostics: write dump")
	}
	if _, err := d.file.WriteString("\n"); err != nil {
		return errors.Wrap(err, "diagnostics: write trailer")
	}
	return nil
}

// Close releases the underlying file. A nil receiver is a no-op.
func (d *Dumper) Close() error {
	if d == nil {
		return nil
	}
	return d.file.Close()
}
